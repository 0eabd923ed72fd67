// Package catalog keeps the index of recordings the stream assembler draws
// from.
//
// The catalog is a single JSON document of the form
// {"2024": {"10": {"14": ["0520", "1754"]}}} stored next to the archive. It
// is only ever appended to: Cataloger.Consider admits one recording at a
// time after detection, and Store.Rebuild recreates the whole document from
// an archive listing. Writers hold a file lock around the read-modify-write so
// appends from concurrent processes on one host are not lost.
package catalog
