package fulfillment

import (
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type settings struct {
	clock      Clock
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// Option tunes an engine. Unused settings are ignored.
type Option func(*settings)

func WithClock(clock Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithBackOff replaces the exponential back-off between courier attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *settings) {
		s.newBackOff = newBackOff
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		clock:  systemClock,
		logger: zap.NewNop(),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
