// internal/app/system/stats/rollups.go
package stats

import (
	"sort"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// ContributorTotal is one giver's slice of the rollup.
type ContributorTotal struct {
	MemberID   string  `json:"member_id"`
	MemberName string  `json:"member_name"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
}

// MonthTotal is one month's total plus its growth over the previous month.
type MonthTotal struct {
	Month  string  `json:"month"` // "2006-01"
	Total  float64 `json:"total"`
	Growth float64 `json:"growth"` // percent vs previous month; 0 when no previous
}

// Rollup is the display-ready contribution summary.
type Rollup struct {
	GrandTotal    float64                     `json:"grand_total"`
	ByContributor map[string]ContributorTotal `json:"by_contributor"` // keyed by member id as stored
	ByMethod      map[string]float64          `json:"by_method"`
	Monthly       []MonthTotal                `json:"monthly"` // chronological
}

// GrowthRate returns the month-over-month growth percentage. A zero previous
// total reports exactly 0 rather than infinity; a brand-new giving month is
// not "infinite growth" on a dashboard.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// CanonicalizeOwners rewrites each contribution's member id to the owning
// member's business id when the stored value is the member document's hex id,
// so a member giving under both identifiers rolls up as one contributor.
// Rows whose id matches no known member pass through unchanged, which keeps
// contributions retained for deleted members in the totals.
func CanonicalizeOwners(members []models.Member, contribs []models.Contribution) []models.Contribution {
	canon := make(map[string]models.Member, len(members)*2)
	for _, m := range members {
		canon[m.MemberID] = m
		canon[m.ID.Hex()] = m
	}

	out := make([]models.Contribution, len(contribs))
	for i, c := range contribs {
		if m, ok := canon[c.MemberID]; ok {
			c.MemberID = m.MemberID
			if m.FullName != "" {
				c.MemberName = m.FullName
			}
		}
		out[i] = c
	}
	return out
}

// RollupContributions computes the grand total, per-contributor and
// per-method totals, and the chronological monthly trend. Rows whose date
// does not parse still count toward totals but are excluded from the monthly
// trend.
func RollupContributions(contribs []models.Contribution) Rollup {
	out := Rollup{
		ByContributor: make(map[string]ContributorTotal),
		ByMethod:      make(map[string]float64),
	}

	monthly := make(map[string]float64)
	seen := make(map[string]struct{}, len(contribs))
	for _, c := range contribs {
		id := c.ID.Hex()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		out.GrandTotal += c.Amount

		ct := out.ByContributor[c.MemberID]
		ct.MemberID = c.MemberID
		ct.MemberName = c.MemberName
		ct.Total += c.Amount
		ct.Count++
		out.ByContributor[c.MemberID] = ct

		if c.PaymentMethod != "" {
			out.ByMethod[c.PaymentMethod] += c.Amount
		}

		if d, ok := parseDate(c.Date); ok {
			monthly[d.Format("2006-01")] += c.Amount
		}
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)

	for i, m := range months {
		mt := MonthTotal{Month: m, Total: monthly[m]}
		if i > 0 {
			mt.Growth = GrowthRate(monthly[m], monthly[months[i-1]])
		}
		out.Monthly = append(out.Monthly, mt)
	}
	return out
}

// TopContributors returns the n largest givers, descending by total.
func TopContributors(r Rollup, n int) []ContributorTotal {
	all := make([]ContributorTotal, 0, len(r.ByContributor))
	for _, ct := range r.ByContributor {
		all = append(all, ct)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Total != all[j].Total {
			return all[i].Total > all[j].Total
		}
		return all[i].MemberID < all[j].MemberID
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
