package components

import twmerge "github.com/Oudwins/tailwind-merge-go"

// Class merges tailwind classes, later ones winning over conflicting earlier ones.
func Class(classes ...string) string {
	return twmerge.Merge(classes...)
}
