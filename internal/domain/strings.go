package domain

import "strings"

// containsFold reports whether s contains sub, optionally folding case.
func containsFold(s, sub string, fold bool) bool {
	if fold {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	return strings.Contains(s, sub)
}
