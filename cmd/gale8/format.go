package main

import (
	"strconv"
	"strings"
)

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinSeconds(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatSeconds(v)
	}
	return strings.Join(parts, ",")
}
