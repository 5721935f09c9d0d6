package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/models"
)

func testCatalog() *Catalog {
	return &Catalog{
		Rooms: []Room{
			{
				ID:          "room-a",
				Name:        "Room Alpha",
				CapacityMax: 50,
				CapacityByLayout: map[string]int{
					"theater": 50,
					"banquet": 30,
				},
				Features:  []string{"projector", "stage"},
				Services:  []string{"whiteboard"},
				UnitPrice: 500,
			},
			{
				ID:          "room-b",
				Name:        "Room Beta",
				CapacityMax: 120,
				Features:    []string{"projector", "terrace"},
				UnitPrice:   900,
			},
			{
				ID:          "room-c",
				Name:        "Garden Hall",
				CapacityMax: 200,
				UnitPrice:   1400,
			},
		},
		Products: []Product{
			{ID: "p1", Name: "Business Lunch", Kind: ProductCatering, Unit: "per person", UnitPrice: 35},
			{ID: "p2", Name: "Coffee Break", Kind: ProductBeverage, Unit: "per person", UnitPrice: 8,
				UnavailableDates: []string{"2026-06-25"}},
			{ID: "p3", Name: "Sound System", Kind: ProductEquipment, Unit: "per event", UnitPrice: 150},
			{ID: "p4", Name: "BBQ Buffet", Kind: ProductCatering, Unit: "per person", UnitPrice: 42,
				UnavailableRooms: []string{"room-a"}},
		},
	}
}

func TestEvaluateRanking(t *testing.T) {
	cat := testCatalog()

	t.Run("tightest capacity fit wins", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 45})
		best := res.Best()
		require.NotNil(t, best)
		assert.Equal(t, "room-a", best.Room.ID)
	})

	t.Run("capacity filters small rooms", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 100})
		best := res.Best()
		require.NotNil(t, best)
		assert.Equal(t, "room-b", best.Room.ID)
		for _, m := range res.Matches {
			assert.NotEqual(t, "room-a", m.Room.ID)
		}
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 500})
		assert.True(t, res.CapacityExceeded)
		assert.Nil(t, res.Best())
	})

	t.Run("layout capacity applies", func(t *testing.T) {
		// Banquet layout caps Room Alpha at 30: 40 people must go elsewhere.
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 40, Layout: "banquet"})
		best := res.Best()
		require.NotNil(t, best)
		assert.NotEqual(t, "room-a", best.Room.ID)
	})

	t.Run("confirmed hold excludes the room", func(t *testing.T) {
		c := testCatalog()
		c.Rooms[0].Availability = []Blocked{{Date: "2026-06-25", Status: models.StatusConfirmed, EventID: "evX"}}
		res := c.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 45})
		for _, m := range res.Matches {
			assert.NotEqual(t, "room-a", m.Room.ID)
		}
	})

	t.Run("optioned hold stays rankable at a penalty", func(t *testing.T) {
		c := testCatalog()
		c.Rooms[0].Availability = []Blocked{{Date: "2026-06-25", Status: models.StatusOption, EventID: "evX"}}
		res := c.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 45})
		var alpha *RoomMatch
		for i := range res.Matches {
			if res.Matches[i].Room.ID == "room-a" {
				alpha = &res.Matches[i]
			}
		}
		require.NotNil(t, alpha)
		assert.True(t, alpha.Held)
	})

	t.Run("preferred room outranks a free alternative", func(t *testing.T) {
		c := testCatalog()
		c.Rooms[1].Availability = []Blocked{{Date: "2026-06-25", Status: models.StatusOption, EventID: "evX"}}
		res := c.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 100, PreferredRoom: "Room Beta"})
		best := res.Best()
		require.NotNil(t, best)
		assert.Equal(t, "room-b", best.Room.ID)
	})

	t.Run("unmatched preference yields closest", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 300, PreferredRoom: "Sky Lounge"})
		assert.True(t, res.CapacityExceeded)

		res = cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 20, PreferredRoom: "Garden"})
		// "Garden" fuzzy-matches Garden Hall, so no Closest is needed.
		assert.Nil(t, res.Closest)
	})

	t.Run("requirement diagnosis", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{
			Date:         "2026-06-25",
			Participants: 40,
			Requirements: []string{"projector", "catwalk"},
		})
		best := res.Best()
		require.NotNil(t, best)
		assert.Contains(t, best.Matched, "projector")
		assert.Contains(t, best.Missing, "catwalk")
	})

	t.Run("excluded room is skipped", func(t *testing.T) {
		res := cat.Evaluate(EvalRequest{Date: "2026-06-25", Participants: 45, ExcludeRoomID: "room-a"})
		for _, m := range res.Matches {
			assert.NotEqual(t, "room-a", m.Room.ID)
		}
	})
}

func TestCateringFor(t *testing.T) {
	cat := testCatalog()

	products := cat.CateringFor("2026-06-25", "room-b")
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "Business Lunch")
	assert.Contains(t, names, "BBQ Buffet")
	assert.NotContains(t, names, "Coffee Break", "blacked out on the date")
	assert.NotContains(t, names, "Sound System", "equipment is not catering")

	inAlpha := cat.CateringFor("2026-07-01", "room-a")
	for _, p := range inAlpha {
		assert.NotEqual(t, "BBQ Buffet", p.Name, "excluded in room-a")
	}
}

func TestRoomLookups(t *testing.T) {
	cat := testCatalog()

	assert.Equal(t, "Room Alpha", cat.RoomByID("room-a").Name)
	assert.Nil(t, cat.RoomByID("nope"))

	assert.Equal(t, "room-b", cat.RoomByName("room beta").ID)
	assert.Equal(t, "room-c", cat.RoomByName("Garden").ID, "substring match")
	assert.Nil(t, cat.RoomByName("Penthouse"))

	assert.Equal(t, 200, cat.LargestCapacity())

	assert.Equal(t, 30, cat.Rooms[0].Capacity("banquet"))
	assert.Equal(t, 50, cat.Rooms[0].Capacity("boardroom"), "unknown layout falls back to max")
}
