// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips unsafe markup from user-supplied rich text.
// Member notes, ministry announcements, and event descriptions all pass
// through here before they are stored.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return p
}

// Sanitize returns s with scripts, event handlers, and unsafe URLs removed.
// Standard formatting tags, links, and tables survive.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// StripAll removes every tag, leaving plain text. Used for fields that are
// displayed in contexts where no markup is wanted, like receipt lines.
func StripAll(s string) string {
	if s == "" {
		return ""
	}
	return bluemonday.StrictPolicy().Sanitize(s)
}
