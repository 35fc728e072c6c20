package sink

import (
	"bytes"
	"errors"
	"sync"
)

var _ Sink = (*Pipe)(nil)

// ErrNotFinished is returned by Bytes before the batch has been sealed.
var ErrNotFinished = errors.New("sink: batch not finished")

// Pipe is an in-memory batch buffer. It accumulates the framed byte stream
// of one load task and exposes the sealed bytes to the storage write path
// once finished. Appends are rejected after Finish or Cancel.
//
// Appends come from the single control loop, but Finish/Cancel and the read
// side may race with inspection from other goroutines, so state is locked.
type Pipe struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	finished  bool
	cancelled bool
	reason    error
}

func NewPipe() *Pipe {
	return &Pipe{}
}

func (p *Pipe) Append(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished || p.cancelled {
		return ErrSealed
	}
	_, _ = p.buf.Write(data)
	return nil
}

func (p *Pipe) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelled {
		return ErrSealed
	}
	p.finished = true
	return nil
}

func (p *Pipe) Cancel(reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished || p.cancelled {
		return
	}
	p.cancelled = true
	p.reason = reason
	p.buf.Reset()
}

// Bytes returns the sealed batch. Only valid after Finish.
func (p *Pipe) Bytes() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.finished {
		return nil, ErrNotFinished
	}
	out := make([]byte, p.buf.Len())
	copy(out, p.buf.Bytes())
	return out, nil
}

// Len reports the bytes buffered so far.
func (p *Pipe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

func (p *Pipe) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

func (p *Pipe) Cancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// CancelReason returns the reason passed to Cancel, or nil.
func (p *Pipe) CancelReason() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}
