package sqlite

import (
	"github.com/classicmodels/throttle/backends"
)

func init() {
	backends.Register("sqlite", func(config any) (backends.Backend, error) {
		dsn, ok := config.(string)
		if !ok || dsn == "" {
			return nil, backends.ErrInvalidConfig
		}
		return New(dsn)
	})
}
