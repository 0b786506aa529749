package redis

import (
	"github.com/classicmodels/throttle/backends"
)

func init() {
	backends.Register("redis", func(config any) (backends.Backend, error) {
		cfg, ok := config.(Config)
		if !ok || cfg.Addr == "" {
			return nil, backends.ErrInvalidConfig
		}
		return New(cfg)
	})
}
