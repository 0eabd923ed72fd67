package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gale8/internal/services"
)

// Outcome is the recognizer's verdict on one window of audio.
type Outcome struct {
	// Complete marks an utterance boundary.
	Complete bool
	// Payload is the raw result document. Keyword spotting searches it for
	// both partial and complete results.
	Payload string
	// Text is the recognized utterance text for complete results.
	Text string
}

// Recognizer is a stateful streaming speech recognizer. It must not be used
// by more than one detection at a time.
type Recognizer interface {
	// Reset discards acoustic state left by the previous recording.
	Reset()
	// AcceptWaveform feeds one window of mono s16le PCM.
	AcceptWaveform(window []byte) (Outcome, error)
	// Close releases native resources.
	Close() error
}

// Model creates recognizers. Loading and unloading the acoustic model is the
// model's concern.
type Model interface {
	NewRecognizer(sampleRate int) (Recognizer, error)
	Close() error
}

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("recognizer pool closed")

// Pool hands out exclusive recognizer handles, one per concurrent worker.
type Pool struct {
	handles chan Recognizer
	all     []Recognizer
	done    chan struct{}
	once    sync.Once
}

// NewPool creates size recognizers from model.
func NewPool(model Model, size, sampleRate int) (*Pool, error) {
	if model == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recognizer", "pool", "no model", nil)
	}
	if size <= 0 {
		size = 1
	}
	p := &Pool{handles: make(chan Recognizer, size), done: make(chan struct{})}
	for i := 0; i < size; i++ {
		rec, err := model.NewRecognizer(sampleRate)
		if err != nil {
			p.Close()
			return nil, services.Wrap(services.ErrConfiguration, "recognizer", "pool",
				fmt.Sprintf("create recognizer %d of %d", i+1, size), err)
		}
		p.all = append(p.all, rec)
		p.handles <- rec
	}
	return p, nil
}

// Size reports how many recognizers the pool owns.
func (p *Pool) Size() int { return len(p.all) }

// Acquire blocks until a recognizer is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Recognizer, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case rec := <-p.handles:
		return rec, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a recognizer obtained from Acquire.
func (p *Pool) Release(rec Recognizer) {
	if rec == nil {
		return
	}
	select {
	case p.handles <- rec:
	default:
	}
}

// Close frees every recognizer. Handles still acquired must not be used afterwards.
func (p *Pool) Close() error {
	var errs []error
	p.once.Do(func() {
		close(p.done)
		for _, rec := range p.all {
			if err := rec.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// ParseText extracts the "text" (complete) or "partial" field from a result document.
func ParseText(payload string) string {
	var doc struct {
		Text    string `json:"text"`
		Partial string `json:"partial"`
	}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return ""
	}
	if doc.Text != "" {
		return strings.TrimSpace(doc.Text)
	}
	return strings.TrimSpace(doc.Partial)
}
