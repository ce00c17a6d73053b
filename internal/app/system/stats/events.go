// internal/app/system/stats/events.go
package stats

import (
	"github.com/covenantapps/flockhub/internal/domain/models"
)

// EventParticipation is the registration rollup for one event.
type EventParticipation struct {
	EventID   string   `json:"event_id"`
	EventName string   `json:"event_name"`
	Count     int      `json:"count"`
	MemberIDs []string `json:"member_ids"`
}

// JoinEventParticipation joins registrations onto events, de-duplicating by
// registration id. Registrations pointing at a deleted event are dropped.
func JoinEventParticipation(events []models.Event, regs []models.EventRegistration) []EventParticipation {
	byEvent := make(map[string]*EventParticipation, len(events))
	order := make([]string, 0, len(events))
	for _, e := range events {
		id := e.ID.Hex()
		byEvent[id] = &EventParticipation{EventID: id, EventName: e.Name}
		order = append(order, id)
	}

	seen := make(map[string]struct{}, len(regs))
	for _, r := range regs {
		id := r.ID.Hex()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, ok := byEvent[r.EventID.Hex()]
		if !ok {
			continue
		}
		p.Count++
		p.MemberIDs = append(p.MemberIDs, r.MemberID)
	}

	out := make([]EventParticipation, 0, len(order))
	for _, id := range order {
		out = append(out, *byEvent[id])
	}
	return out
}
