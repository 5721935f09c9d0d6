// Package catalog holds the per-tenant room and product catalog and the
// availability/ranking logic the room step builds on.
package catalog

import (
	"strings"

	"github.com/venueflow/venueflow/pkg/models"
)

// Blocked is one calendar hold on a room.
type Blocked struct {
	Date    string        `yaml:"date" json:"date"` // ISO
	Status  models.Status `yaml:"status" json:"status"`
	EventID string        `yaml:"event_id,omitempty" json:"event_id,omitempty"`
}

// Room is one bookable room.
type Room struct {
	ID               string         `yaml:"id" json:"id"`
	Name             string         `yaml:"name" json:"name"`
	CapacityMax      int            `yaml:"capacity_max" json:"capacity_max"`
	CapacityByLayout map[string]int `yaml:"capacity_by_layout,omitempty" json:"capacity_by_layout,omitempty"`
	Features         []string       `yaml:"features,omitempty" json:"features,omitempty"`
	Services         []string       `yaml:"services,omitempty" json:"services,omitempty"`
	UnitPrice        float64        `yaml:"unit_price" json:"unit_price"`
	Availability     []Blocked      `yaml:"availability,omitempty" json:"availability,omitempty"`
}

// Capacity returns the room's capacity for a layout, falling back to the
// maximum when the layout is unknown.
func (r *Room) Capacity(layout string) int {
	if layout != "" {
		if c, ok := r.CapacityByLayout[strings.ToLower(layout)]; ok {
			return c
		}
	}
	return r.CapacityMax
}

// StatusOn returns the hold status for a date, or "" when the room is free.
func (r *Room) StatusOn(date string) models.Status {
	for _, b := range r.Availability {
		if b.Date == date {
			return b.Status
		}
	}
	return ""
}

// ProductKind groups products for the catalog UI.
type ProductKind string

const (
	ProductCatering  ProductKind = "catering"
	ProductBeverage  ProductKind = "beverages"
	ProductEquipment ProductKind = "equipment"
	ProductAddOn     ProductKind = "add-ons"
)

// Product is one offer line-item candidate. Unit is a protected fact and
// must survive verbalization verbatim ("per person" vs "per event").
type Product struct {
	ID        string      `yaml:"id" json:"id"`
	Name      string      `yaml:"name" json:"name"`
	Kind      ProductKind `yaml:"kind" json:"kind"`
	Unit      string      `yaml:"unit" json:"unit"` // "per person" | "per event"
	UnitPrice float64     `yaml:"unit_price" json:"unit_price"`
	// UnavailableDates lists ISO dates on which the product cannot be served.
	UnavailableDates []string `yaml:"unavailable_dates,omitempty" json:"unavailable_dates,omitempty"`
	// UnavailableRooms lists room IDs the product cannot be served in.
	UnavailableRooms []string `yaml:"unavailable_rooms,omitempty" json:"unavailable_rooms,omitempty"`
}

// Catalog is the per-tenant room and product catalog. Read-only per turn;
// served through a 30s TTL cache keyed by tenant.
type Catalog struct {
	Rooms    []Room    `yaml:"rooms" json:"rooms"`
	Products []Product `yaml:"products" json:"products"`
	Menus    []Product `yaml:"menus,omitempty" json:"menus,omitempty"`
}

// RoomByID returns the room with the given id, or nil.
func (c *Catalog) RoomByID(id string) *Room {
	for i := range c.Rooms {
		if c.Rooms[i].ID == id {
			return &c.Rooms[i]
		}
	}
	return nil
}

// RoomByName returns the room whose name matches case-insensitively,
// or by substring when no exact match exists.
func (c *Catalog) RoomByName(name string) *Room {
	if name == "" {
		return nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range c.Rooms {
		if strings.ToLower(c.Rooms[i].Name) == want {
			return &c.Rooms[i]
		}
	}
	for i := range c.Rooms {
		have := strings.ToLower(c.Rooms[i].Name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &c.Rooms[i]
		}
	}
	return nil
}

// LargestCapacity returns the largest room capacity in the catalog.
func (c *Catalog) LargestCapacity() int {
	max := 0
	for i := range c.Rooms {
		if c.Rooms[i].CapacityMax > max {
			max = c.Rooms[i].CapacityMax
		}
	}
	return max
}

// ProductByName finds a product or menu by fuzzy name match.
func (c *Catalog) ProductByName(name string) *Product {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}
	pools := [][]Product{c.Products, c.Menus}
	for _, pool := range pools {
		for i := range pool {
			have := strings.ToLower(pool[i].Name)
			if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
				return &pool[i]
			}
		}
	}
	return nil
}
