package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DuePublisher publishes every scheduled post whose time has come.
type DuePublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int, error)
}

// Publisher periodically publishes due posts.
type Publisher struct {
	source   DuePublisher
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	done chan struct{}
	once sync.Once
}

// NewPublisher creates a Publisher. Intervals below one second fall back
// to thirty seconds.
func NewPublisher(source DuePublisher, interval time.Duration, log logrus.FieldLogger) *Publisher {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		source:   source,
		interval: interval,
		log:      log.WithField("worker", "publisher"),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Interval returns the tick period.
func (p *Publisher) Interval() time.Duration {
	return p.interval
}

// Done is closed once Start has returned.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

// Start runs the publish loop until ctx is cancelled. A pass runs right
// away and then once per interval.
func (p *Publisher) Start(ctx context.Context) {
	defer p.once.Do(func() { close(p.done) })

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.interval.String()).Info("publisher started")

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("publisher stopped")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single publish pass. Panics are logged and swallowed so
// the next tick still runs.
func (p *Publisher) RunOnce(ctx context.Context) (published int) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("publish pass panicked, retrying next tick")
			published = 0
		}
	}()

	if ctx.Err() != nil {
		return 0
	}
	n, err := p.source.PublishDue(ctx, p.now())
	if err != nil {
		p.log.WithError(err).WithField("published", n).Warn("some due posts were not published")
	}
	if n > 0 {
		p.log.WithField("published", n).Info("published due posts")
	}
	return n
}
