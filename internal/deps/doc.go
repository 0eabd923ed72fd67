// Package deps checks that the external programs gale8 shells out to are
// installed.
package deps
