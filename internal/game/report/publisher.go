package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Publisher delivers a report to a transcript sink.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, r Report) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, r Report) error { return f(ctx, r) }

// MultiPublisher delivers each report to every sink in order. A failing sink
// is logged and does not stop delivery to the rest.
type MultiPublisher struct {
	sinks  []Publisher
	logger *zap.Logger
}

// NewMultiPublisher creates a fan-out over sinks.
//
// Precondition: logger must be non-nil.
func NewMultiPublisher(logger *zap.Logger, sinks ...Publisher) *MultiPublisher {
	return &MultiPublisher{sinks: sinks, logger: logger}
}

// Publish implements Publisher. It never returns an error.
func (m *MultiPublisher) Publish(ctx context.Context, r Report) error {
	for i, s := range m.sinks {
		if err := s.Publish(ctx, r); err != nil {
			m.logger.Warn("publishing report",
				zap.Int("sink", i),
				zap.String("report_id", r.ID.String()),
				zap.String("kind", string(r.Kind)),
				zap.Error(err),
			)
		}
	}
	return nil
}

// WriterPublisher prints report text to an io.Writer.
type WriterPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterPublisher creates a publisher writing to w.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{w: w}
}

// Publish implements Publisher.
func (p *WriterPublisher) Publish(_ context.Context, r Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "[report] %s\n", r.Text)
	return err
}

// LogPublisher records each report at info level.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher logging to logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(_ context.Context, r Report) error {
	p.logger.Info("damage report",
		zap.String("report_id", r.ID.String()),
		zap.String("event_id", r.EventID),
		zap.String("kind", string(r.Kind)),
		zap.String("target", string(r.Target)),
		zap.Int("wounds", r.Wounds),
	)
	return nil
}
