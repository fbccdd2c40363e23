package eventlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/skycoin/skylink/internal/queue"
	"github.com/skycoin/skylink/pkg/metrics"
)

// Format selects the textual layout of the output file.
type Format string

// Output formats.
const (
	// FormatCompat writes `b <contents>` and `d <owner> <contents>` lines.
	FormatCompat = Format("compat")
	// FormatVerbose writes human readable lines carrying the payload kind.
	FormatVerbose = Format("verbose")
)

// ParseFormat parses an output format. The empty string selects FormatCompat.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCompat:
		return FormatCompat, nil
	case FormatVerbose:
		return FormatVerbose, nil
	}
	return "", fmt.Errorf("unknown output format '%s'", s)
}

// Line formats e as one output line, without the trailing newline.
func (f Format) Line(e Event) string {
	if f == FormatVerbose {
		switch e.Type {
		case Dispatch:
			if e.Recipient != nil {
				return fmt.Sprintf("sent %s to %d: %s", e.Kind, e.Recipient.ID, e.Contents)
			}
			return fmt.Sprintf("sent %s: %s", e.Kind, e.Contents)
		case Delivery:
			return fmt.Sprintf("delivered %s from %d: %s", e.Kind, e.OwnerID, e.Contents)
		}
		return fmt.Sprintf("%s %s: %s", e.Type, e.Kind, e.Contents)
	}

	if e.Type == Dispatch {
		return "b " + e.Contents
	}
	return fmt.Sprintf("d %d %s", e.OwnerID, e.Contents)
}

// CreateOutput truncates or creates the output file at path.
func CreateOutput(path string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "create output")
	}
	return f, nil
}

// Writer is the log-writer loop. It is a Sink: emitted events are queued
// and written by Serve in emission order.
type Writer struct {
	q      *queue.Queue[Event]
	out    *bufio.Writer
	format Format
	store  Store
	m      metrics.Recorder
}

// NewWriter creates a Writer writing lines to out and recording every
// event in store. store and m may be nil.
func NewWriter(out io.Writer, format Format, store Store, m metrics.Recorder) *Writer {
	if m == nil {
		m = metrics.NewDummy()
	}
	return &Writer{
		q:      queue.New[Event](),
		out:    bufio.NewWriter(out),
		format: format,
		store:  store,
		m:      m,
	}
}

// Emit implements Sink.
func (w *Writer) Emit(e Event) {
	if err := w.q.Push(e); err != nil {
		log.Debugf("dropped %s event after close: %s", e.Type, e.Contents)
	}
}

// Pending returns the number of queued events.
func (w *Writer) Pending() int {
	return w.q.Len()
}

// Serve drains events until ctx is done or the writer is closed. Events
// already queued at that point are still written.
func (w *Writer) Serve(ctx context.Context) error {
	for {
		e, err := w.q.Pop(ctx)
		if err != nil {
			if err == queue.ErrClosed || err == ctx.Err() {
				return w.drain()
			}
			return err
		}
		if err := w.write(e); err != nil {
			return err
		}
	}
}

// Close stops accepting events.
func (w *Writer) Close() {
	w.q.Close()
}

func (w *Writer) drain() error {
	for w.q.Len() > 0 {
		e, err := w.q.Pop(context.Background())
		if err != nil {
			break
		}
		if err := w.writeLine(e); err != nil {
			return err
		}
	}
	return errors.Wrap(w.out.Flush(), "flush output")
}

func (w *Writer) write(e Event) error {
	if err := w.writeLine(e); err != nil {
		return err
	}
	if w.q.Len() == 0 {
		return errors.Wrap(w.out.Flush(), "flush output")
	}
	return nil
}

func (w *Writer) writeLine(e Event) error {
	switch e.Type {
	case Dispatch:
		w.m.Dispatched(e.Kind)
	case Delivery:
		w.m.Delivered(e.Kind)
	}

	if w.store != nil {
		if err := w.store.Record(e); err != nil {
			log.WithError(err).Warn("Failed to record event")
		}
	}

	if _, err := w.out.WriteString(w.format.Line(e) + "\n"); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
