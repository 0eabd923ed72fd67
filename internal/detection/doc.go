// Package detection turns recordings into cue sets and transcripts.
//
// A Detector feeds decoded PCM to a streaming recognizer a quarter second at
// a time and notes when each trigger keyword is first heard within an
// utterance. Cue times are corrected by the keyword's recognizer latency.
// The Runner layers storage on top: it fetches recordings, fans detection out
// across a pool of recognizers, publishes each result as a JSON cue file and
// records it in the local cache.
package detection
