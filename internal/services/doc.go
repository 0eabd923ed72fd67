// Package services defines shared utilities consumed by the detection,
// cataloging and assembly components.
//
// Key responsibilities:
//   - Context helpers that stamp run ids and recording names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is and decide whether a recording can be skipped.
package services
