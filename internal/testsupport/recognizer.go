package testsupport

import (
	"fmt"
	"strconv"
	"sync"

	"gale8/internal/recognizer"
)

// Partial returns a partial outcome in the vosk result shape.
func Partial(text string) recognizer.Outcome {
	return recognizer.Outcome{Payload: fmt.Sprintf("{\n  \"partial\" : %s\n}", strconv.Quote(text))}
}

// Utterance returns a complete outcome in the vosk result shape.
func Utterance(text string) recognizer.Outcome {
	return recognizer.Outcome{
		Complete: true,
		Payload:  fmt.Sprintf("{\n  \"text\" : %s\n}", strconv.Quote(text)),
		Text:     text,
	}
}

// Script maps a zero-based window index to the outcome the recognizer reports
// for it. Windows without an entry yield an empty partial result.
type Script map[int]recognizer.Outcome

// ScriptedRecognizer replays a Script. Reset rewinds it to window zero.
type ScriptedRecognizer struct {
	mu       sync.Mutex
	script   Script
	window   int
	resets   int
	closed   bool
	inFlight bool
	overlaps int
}

func (r *ScriptedRecognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.window = 0
	r.resets++
}

func (r *ScriptedRecognizer) AcceptWaveform(window []byte) (recognizer.Outcome, error) {
	r.mu.Lock()
	if r.inFlight {
		r.overlaps++
	}
	r.inFlight = true
	idx := r.window
	r.window++
	closed := r.closed
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()
	if closed {
		return recognizer.Outcome{}, fmt.Errorf("recognizer closed")
	}
	if outcome, ok := r.script[idx]; ok {
		return outcome, nil
	}
	return Partial(""), nil
}

func (r *ScriptedRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Resets reports how many times Reset was called.
func (r *ScriptedRecognizer) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

// Overlaps reports how many windows arrived while another was in flight.
func (r *ScriptedRecognizer) Overlaps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps
}

// ScriptedModel creates ScriptedRecognizers that all replay the same script.
type ScriptedModel struct {
	Script  Script
	mu      sync.Mutex
	created []*ScriptedRecognizer
	closed  bool
}

func (m *ScriptedModel) NewRecognizer(int) (recognizer.Recognizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &ScriptedRecognizer{script: m.Script}
	m.created = append(m.created, rec)
	return rec, nil
}

func (m *ScriptedModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Recognizers returns every recognizer the model created.
func (m *ScriptedModel) Recognizers() []*ScriptedRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ScriptedRecognizer(nil), m.created...)
}
