// Package storage provides the blob store gale8 reads recordings from and
// publishes cue files, the catalog and assembled streams to.
//
// Two backends exist: a local directory, used for development and
// single-host installs, and Amazon S3 (or any S3-compatible service). The
// backend is chosen by configuration and injected into the components that
// need it; nothing in the pipeline inspects the environment to decide where
// output goes.
package storage
