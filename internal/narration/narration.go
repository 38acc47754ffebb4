// Package narration delivers outcome text to whatever renders or speaks it.
// Sinks must not block the caller on playback.
package narration

import (
	"context"
	"fmt"
	"io"
	"sync"

	"budgetvoice/internal/log"
)

type Sink interface {
	Narrate(ctx context.Context, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, text string)

func (f SinkFunc) Narrate(ctx context.Context, text string) { f(ctx, text) }

// Discard drops everything.
var Discard Sink = SinkFunc(func(context.Context, string) {})

// LogSink writes narration to the structured log.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent(log.ComponentNarration)}
}

func (s *LogSink) Narrate(ctx context.Context, text string) {
	s.logger.InfoContext(ctx, "Narration", "text", text)
}

// WriterSink prints one line per narration, used by the CLI.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Narrate(_ context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, text)
}

// Multi fans out to every sink in order.
type Multi []Sink

func (m Multi) Narrate(ctx context.Context, text string) {
	for _, s := range m {
		if s != nil {
			s.Narrate(ctx, text)
		}
	}
}

// Recorder keeps every narration in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) Narrate(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Last returns the most recent narration or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}
