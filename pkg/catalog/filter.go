package catalog

// CateringFor returns the catering and menu products servable on the event
// date in the selected room. Date-aware: products with the date blacked out
// are dropped. Room-aware: products excluded for the room are dropped.
func (c *Catalog) CateringFor(date, roomID string) []Product {
	var out []Product
	pools := [][]Product{c.Products, c.Menus}
	for _, pool := range pools {
		for _, p := range pool {
			if p.Kind != ProductCatering && p.Kind != ProductBeverage {
				continue
			}
			if !p.AvailableOn(date) || !p.AvailableIn(roomID) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// AvailableOn reports whether the product can be served on an ISO date.
func (p *Product) AvailableOn(date string) bool {
	if date == "" {
		return true
	}
	for _, d := range p.UnavailableDates {
		if d == date {
			return false
		}
	}
	return true
}

// AvailableIn reports whether the product can be served in a room.
func (p *Product) AvailableIn(roomID string) bool {
	if roomID == "" {
		return true
	}
	for _, r := range p.UnavailableRooms {
		if r == roomID {
			return false
		}
	}
	return true
}
