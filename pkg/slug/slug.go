// Package slug builds URL-safe product identifiers.
package slug

import "strings"

// Normalize lowercases s, turns every space into an underscore and drops
// apostrophes.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "'", "")
}

// FromTitle returns the normalized slug when one was supplied, otherwise the
// slug derived from title.
func FromTitle(title string, slug *string) string {
	if slug != nil && *slug != "" {
		return Normalize(*slug)
	}
	return Normalize(title)
}
