// Package transcoder wraps the ffmpeg process gale8 uses to decode recordings
// into raw PCM for the recognizer and to re-encode trimmed, faded segments for
// the assembled stream.
//
// Every invocation is bounded by a timeout. On expiry ffmpeg is interrupted
// and, if it has not exited after a grace period, killed.
package transcoder
