package catalog

import (
	"sort"
	"strings"

	"github.com/venueflow/venueflow/pkg/models"
)

// Scoring constants. The preferred-room bonus must beat the
// available-vs-option status gap so a preferred room that is merely
// optioned still outranks a free non-preferred one.
const (
	scoreAvailable     = 50
	scoreOptioned      = 25
	preferredBonus     = 30
	featureMatchPoints = 10
	capacityFitBase    = 100
)

// EvalRequest is the input to room evaluation.
type EvalRequest struct {
	Date          string
	Participants  int
	Layout        string
	Requirements  []string
	PreferredRoom string
	// ExcludeRoomID drops one room from consideration (conflict-loser
	// redirection).
	ExcludeRoomID string
}

// RoomMatch is one evaluated room with its feature diagnosis.
type RoomMatch struct {
	Room    *Room
	Score   int
	Matched []string
	Missing []string
	// Held reports the room is optioned (not free) on the date.
	Held bool
}

// EvalResult is the ranked outcome of evaluating all rooms for a date.
type EvalResult struct {
	Matches []RoomMatch
	// Closest is the nearest room to the stated preference when the
	// preference itself did not match any room.
	Closest *Room
	// CapacityExceeded is set when no room fits the participant count.
	CapacityExceeded bool
}

// Best returns the top-ranked match, or nil when none fit.
func (r *EvalResult) Best() *RoomMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// Evaluate ranks all rooms for the given date and requirements.
// Confirmed holds exclude a room outright; optioned holds keep it rankable
// (soft-conflict territory) at a status penalty.
func (c *Catalog) Evaluate(req EvalRequest) EvalResult {
	var result EvalResult
	anyCapacity := false

	for i := range c.Rooms {
		room := &c.Rooms[i]
		if room.ID == req.ExcludeRoomID {
			continue
		}
		if room.Capacity(req.Layout) < req.Participants {
			continue
		}
		anyCapacity = true

		status := room.StatusOn(req.Date)
		if status == models.StatusConfirmed {
			continue
		}

		m := RoomMatch{Room: room, Held: status == models.StatusOption}

		// Capacity fit: tighter fit scores higher.
		cap := room.Capacity(req.Layout)
		fit := capacityFitBase
		if req.Participants > 0 && cap > 0 {
			fit = capacityFitBase * req.Participants / cap
		}
		m.Score += fit

		if m.Held {
			m.Score += scoreOptioned
		} else {
			m.Score += scoreAvailable
		}

		if req.PreferredRoom != "" && matchesName(room, req.PreferredRoom) {
			m.Score += preferredBonus
		}

		matched, missing := room.featureDiagnosis(req.Layout, req.Requirements)
		m.Matched = matched
		m.Missing = missing
		m.Score += featureMatchPoints * len(matched)

		result.Matches = append(result.Matches, m)
	}

	if !anyCapacity && req.Participants > 0 {
		result.CapacityExceeded = true
		return result
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Score > result.Matches[j].Score
	})

	if req.PreferredRoom != "" {
		found := false
		for i := range result.Matches {
			if matchesName(result.Matches[i].Room, req.PreferredRoom) {
				found = true
				break
			}
		}
		if !found {
			result.Closest = c.RoomByName(req.PreferredRoom)
			if result.Closest == nil && len(result.Matches) > 0 {
				result.Closest = result.Matches[0].Room
			}
		}
	}

	return result
}

func matchesName(room *Room, name string) bool {
	want := strings.ToLower(strings.TrimSpace(name))
	have := strings.ToLower(room.Name)
	return have == want || strings.Contains(have, want) || strings.Contains(want, have)
}

// featureDiagnosis fuzzy-matches each requirement over the room's features,
// services, and layout keys.
func (r *Room) featureDiagnosis(layout string, requirements []string) (matched, missing []string) {
	var haystack []string
	haystack = append(haystack, r.Features...)
	haystack = append(haystack, r.Services...)
	for k := range r.CapacityByLayout {
		haystack = append(haystack, k)
	}
	if layout != "" {
		requirements = append(append([]string{}, requirements...), layout)
	}

	for _, want := range requirements {
		w := strings.ToLower(strings.TrimSpace(want))
		if w == "" {
			continue
		}
		ok := false
		for _, have := range haystack {
			h := strings.ToLower(have)
			if strings.Contains(h, w) || strings.Contains(w, h) {
				ok = true
				break
			}
		}
		if ok {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}
	return matched, missing
}
