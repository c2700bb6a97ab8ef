// Package stream frames generation results as newline-delimited JSON for
// incremental delivery: one meta frame, token deltas, one terminal frame.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
)

// Frame kinds, in emission order.
const (
	FrameMeta  = "meta"
	FrameToken = "token"
	FrameDone  = "done"
	FrameError = "error"
)

type Frame struct {
	Type   string                  `json:"type"`
	Result *model.GenerationResult `json:"result,omitempty"`
	Delta  string                  `json:"delta,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// ErrTerminated is returned when a frame is emitted after done/error.
var ErrTerminated = errors.New("stream already terminated")

// Emitter writes frames to an HTTP response, flushing after each one. Once a
// terminal frame is written, every further emit is rejected.
type Emitter struct {
	w        io.Writer
	flush    func()
	enc      *json.Encoder
	started  bool
	terminal bool
}

func NewEmitter(w http.ResponseWriter) *Emitter {
	e := &Emitter{w: w, enc: json.NewEncoder(w), flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		e.flush = f.Flush
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-store")
	return e
}

func (e *Emitter) emit(f Frame) error {
	if e.terminal {
		return ErrTerminated
	}
	if err := e.enc.Encode(f); err != nil {
		return err
	}
	e.flush()
	return nil
}

// Meta sends the full result once, with the text blanked so the client can
// render every non-text field immediately.
func (e *Emitter) Meta(res model.GenerationResult) error {
	if e.started {
		return errors.New("meta frame already sent")
	}
	e.started = true
	res.Content.Text = ""
	return e.emit(Frame{Type: FrameMeta, Result: &res})
}

// Token appends one text delta.
func (e *Emitter) Token(delta string) error {
	if delta == "" {
		return nil
	}
	return e.emit(Frame{Type: FrameToken, Delta: delta})
}

// Done sends the terminal success frame with the fully-persisted result.
func (e *Emitter) Done(res model.GenerationResult) error {
	if err := e.emit(Frame{Type: FrameDone, Result: &res}); err != nil {
		return err
	}
	e.terminal = true
	return nil
}

// Fail sends the terminal error frame.
func (e *Emitter) Fail(msg string) error {
	if err := e.emit(Frame{Type: FrameError, Error: msg}); err != nil {
		return err
	}
	e.terminal = true
	return nil
}

// Reader consumes an NDJSON byte stream cooperatively: read a chunk, split on
// newlines, decode complete lines, carry the trailing partial line over to
// the next read. Unparseable lines are discarded, not fatal.
type Reader struct {
	sc   *bufio.Scanner
	done bool
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxDecodedFrame)
	return &Reader{sc: sc}
}

const maxDecodedFrame = 1 << 20

// Next returns the next well-formed frame, or io.EOF when the stream ends.
// Frames after a terminal frame are not meaningful and are not returned.
func (r *Reader) Next() (Frame, error) {
	if r.done {
		return Frame{}, io.EOF
	}
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil || f.Type == "" {
			continue // malformed lines are dropped
		}
		if f.Type == FrameDone || f.Type == FrameError {
			r.done = true
		}
		return f, nil
	}
	if err := r.sc.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

// Sequencer hands out monotonically increasing request sequence numbers so a
// consumer can discard frames belonging to a superseded request.
type Sequencer struct {
	seq atomic.Uint64
}

// Begin starts a new request generation and returns its sequence number,
// invalidating all earlier ones.
func (s *Sequencer) Begin() uint64 {
	return s.seq.Add(1)
}

// Stale reports whether seq belongs to a superseded request.
func (s *Sequencer) Stale(seq uint64) bool {
	return seq != s.seq.Load()
}
