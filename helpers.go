package racepub

import (
	"path"
	"strings"
)

const (
	// PublishBranch is the only branch racepub reads from and commits to.
	PublishBranch = "main"

	reportsDir = "public/gare"
	metaDir    = "gare-sorgenti"
)

// NormalizeSlug lowercases s, replaces every character outside [a-z0-9-]
// with a hyphen, collapses hyphen runs and trims hyphens at both ends.
// The result may be empty.
func NormalizeSlug(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prev := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prev = false
			continue
		}
		if !prev {
			b.WriteByte('-')
			prev = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// ReportPath is the repository path of the HTML report for slug.
func ReportPath(slug string) string {
	return path.Join(reportsDir, slug+".html")
}

// MetaPath is the repository path of the JSON metadata for slug.
func MetaPath(slug string) string {
	return path.Join(metaDir, slug+".json")
}

// yearOf returns the year part of a YYYY-MM-DD date.
func yearOf(date string) string {
	if date == "" {
		return "unknown"
	}
	y, _, _ := strings.Cut(date, "-")
	return y
}
