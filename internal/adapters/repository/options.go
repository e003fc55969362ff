package repository

import "github.com/okian/weekboard/pkg/logger"

// Option applies a configuration option to the Mongo repository.
type Option func(*Mongo)

// WithLogger sets the logger used for sanitization warnings.
func WithLogger(l logger.Logger) Option {
	return func(m *Mongo) {
		if l != nil {
			m.log = l
		}
	}
}

// WithDatabase overrides the database name.
func WithDatabase(name string) Option {
	return func(m *Mongo) {
		if name != "" {
			m.dbName = name
		}
	}
}
