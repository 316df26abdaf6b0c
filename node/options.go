package node

import (
	"time"

	"github.com/andydunstall/primegossip/pkg/log"
)

type options struct {
	now    func() time.Time
	logger log.Logger
}

type Option interface {
	apply(*options)
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		logger: log.NewNopLogger(),
	}
}

type clockOption struct {
	Now func() time.Time
}

func (o clockOption) apply(opts *options) {
	opts.now = o.Now
}

// WithClock overrides the clock used to timestamp peers and events.
func WithClock(now func() time.Time) Option {
	return clockOption{Now: now}
}

type loggerOption struct {
	Logger log.Logger
}

func (o loggerOption) apply(opts *options) {
	opts.logger = o.Logger
}

func WithLogger(l log.Logger) Option {
	return loggerOption{Logger: l}
}
