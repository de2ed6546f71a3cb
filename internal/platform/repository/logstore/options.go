package logstore

import (
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	logger     log.Logger
	registerer prometheus.Registerer
	clock      func() time.Time
}

type Option func(*options)

func defaultOptions() options {
	return options{
		logger: log.NewNopLogger(),
		clock:  time.Now,
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers the engine metrics under the logdb_storage_ prefix.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = registerer
	}
}

// WithClock sets the source of record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}
