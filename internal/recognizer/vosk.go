//go:build vosk

package recognizer

import (
	"fmt"

	vosk "github.com/alphacep/vosk-api/go"
)

func init() {
	vosk.SetLogLevel(-1)
}

type voskModel struct {
	model *vosk.VoskModel
}

// OpenModel loads a vosk acoustic model directory.
func OpenModel(path string) (Model, error) {
	model, err := vosk.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("load vosk model %s: %w", path, err)
	}
	return &voskModel{model: model}, nil
}

func (m *voskModel) NewRecognizer(sampleRate int) (Recognizer, error) {
	rec, err := vosk.NewRecognizer(m.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}
	return &voskRecognizer{rec: rec}, nil
}

func (m *voskModel) Close() error {
	m.model.Free()
	return nil
}

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

func (r *voskRecognizer) Reset() { r.rec.Reset() }

func (r *voskRecognizer) AcceptWaveform(window []byte) (Outcome, error) {
	switch r.rec.AcceptWaveform(window) {
	case 1:
		payload := r.rec.Result()
		return Outcome{Complete: true, Payload: payload, Text: ParseText(payload)}, nil
	case 0:
		return Outcome{Payload: r.rec.PartialResult()}, nil
	default:
		return Outcome{}, fmt.Errorf("vosk rejected %d byte window", len(window))
	}
}

func (r *voskRecognizer) Close() error {
	r.rec.Free()
	return nil
}

// Available reports whether a native speech backend is compiled in.
func Available() bool { return true }
