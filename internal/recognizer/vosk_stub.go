//go:build !vosk

package recognizer

import "gale8/internal/services"

// OpenModel fails because the binary was built without the vosk tag.
func OpenModel(path string) (Model, error) {
	return nil, services.Wrap(services.ErrConfiguration, "recognizer", "open model",
		"vosk support not compiled in (rebuild with -tags vosk)", nil)
}

// Available reports whether a native speech backend is compiled in.
func Available() bool { return false }
