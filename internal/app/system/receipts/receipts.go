// internal/app/system/receipts/receipts.go

// Package receipts generates contribution receipt numbers. A receipt number
// is permanent once issued; editing a contribution never reissues it.
package receipts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// typeCodes maps contribution types to the three-letter receipt prefix.
var typeCodes = map[string]string{
	"tithe":        "TIT",
	"offering":     "OFF",
	"special":      "SPE",
	"building":     "BLD",
	"missions":     "MIS",
	"thanksgiving": "THX",
}

// Number builds a receipt number like TIT-20251001-143205-a3f1: type code,
// timestamp, and a short random suffix so two receipts issued in the same
// second still differ.
func Number(contributionType string, at time.Time) string {
	code, ok := typeCodes[strings.ToLower(strings.TrimSpace(contributionType))]
	if !ok {
		code = "GEN"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return code + "-" + at.Format("20060102-150405") + "-" + suffix
}
