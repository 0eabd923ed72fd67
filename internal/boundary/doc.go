// Package boundary picks the slice of a recording that holds the shipping
// forecast, given the keyword cues detection found in it.
package boundary
