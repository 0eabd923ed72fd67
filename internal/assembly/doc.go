// Package assembly stitches trimmed forecasts into one continuous stream.
//
// The Assembler draws recordings from the catalog, asks detection for their
// cues, selects the forecast window with the boundary package and has the
// transcoder cut and fade it. Segments are concatenated in draw order and a
// caption labelling each one with its broadcast time is laid on the same
// running offset, so captions stay aligned with the audio however many
// segments end up in the stream.
package assembly
