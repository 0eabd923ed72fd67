// Package captions renders and reads the caption track that labels each
// forecast in the assembled stream with its broadcast time.
package captions
