package memory

import (
	"github.com/classicmodels/throttle/backends"
)

func init() {
	backends.Register("memory", func(config any) (backends.Backend, error) {
		switch cfg := config.(type) {
		case nil:
			return New(), nil
		case Config:
			return NewWithConfig(cfg), nil
		default:
			return nil, backends.ErrInvalidConfig
		}
	})
}
