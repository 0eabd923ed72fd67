// Package broadcast names recordings. A recording is identified by the UK
// local time its broadcast started, encoded in the file name as
// YYYYMMDDZHHMM.<ext>.
package broadcast
