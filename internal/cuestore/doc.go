// Package cuestore caches detection results in SQLite, keyed by recording
// file name.
//
// The cache sits in front of the published cue files so assembly and audits
// do not refetch or redetect recordings that were already processed. Each row
// holds the full cue file document alongside the length and the keywords that
// fired, which lets audits filter without decoding every document.
//
// The database is disposable: the cue files in the store stay authoritative.
// Schema changes bump schemaVersion; an old database is rejected and must be
// deleted.
package cuestore
