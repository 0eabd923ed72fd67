// Package audit reports recordings that need an operator's attention:
// captures cut short and recordings in which nothing recognisable was heard.
//
// Reports work on detection results, read either from the published cue
// files with Load or from the local cue cache.
package audit
