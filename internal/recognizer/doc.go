// Package recognizer defines the streaming speech recognizer contract the
// cue detector consumes and a pool that gives each worker an exclusive
// recognizer.
//
// The vosk backend is compiled only with the vosk build tag because it links
// the native libvosk library. Without the tag OpenModel reports a
// configuration error and callers may supply their own Model.
package recognizer
