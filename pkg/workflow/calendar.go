package workflow

import (
	"context"
	"fmt"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

// Calendar is the room-availability collaborator. The default
// implementation writes holds into the tenant catalog; a deployment can
// swap in an external booking system.
type Calendar interface {
	BlockedDates(ctx context.Context, tenantID, roomID string) ([]catalog.Blocked, error)
	// Reserve places or upgrades the event's hold on (room, date). Any
	// prior hold by the same event on the room is replaced, so a date
	// change moves the hold rather than leaking the old one.
	Reserve(ctx context.Context, tenantID, eventID, roomID, date string, status models.Status) error
	// Release drops all of the event's holds on the room.
	Release(ctx context.Context, tenantID, eventID, roomID string) error
}

// storeCalendar keeps holds in the tenant catalog record.
type storeCalendar struct {
	store store.TenantStore
	// invalidate drops the router's catalog cache entry after a write.
	invalidate func(tenantID string)
}

// NewStoreCalendar creates the catalog-backed calendar.
func NewStoreCalendar(st store.TenantStore, invalidate func(tenantID string)) Calendar {
	if st == nil {
		panic("NewStoreCalendar: store must not be nil")
	}
	if invalidate == nil {
		invalidate = func(string) {}
	}
	return &storeCalendar{store: st, invalidate: invalidate}
}

func (c *storeCalendar) BlockedDates(ctx context.Context, tenantID, roomID string) ([]catalog.Blocked, error) {
	cat, err := c.store.GetCatalog(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	room := cat.RoomByID(roomID)
	if room == nil {
		return nil, fmt.Errorf("unknown room %q: %w", roomID, store.ErrNotFound)
	}
	return append([]catalog.Blocked(nil), room.Availability...), nil
}

func (c *storeCalendar) Reserve(ctx context.Context, tenantID, eventID, roomID, date string, status models.Status) error {
	return c.mutate(ctx, tenantID, roomID, func(room *catalog.Room) {
		kept := room.Availability[:0]
		for _, b := range room.Availability {
			if b.EventID != eventID {
				kept = append(kept, b)
			}
		}
		room.Availability = append(kept, catalog.Blocked{Date: date, Status: status, EventID: eventID})
	})
}

func (c *storeCalendar) Release(ctx context.Context, tenantID, eventID, roomID string) error {
	return c.mutate(ctx, tenantID, roomID, func(room *catalog.Room) {
		kept := room.Availability[:0]
		for _, b := range room.Availability {
			if b.EventID != eventID {
				kept = append(kept, b)
			}
		}
		room.Availability = kept
	})
}

func (c *storeCalendar) mutate(ctx context.Context, tenantID, roomID string, fn func(*catalog.Room)) error {
	cat, err := c.store.GetCatalog(ctx, tenantID)
	if err != nil {
		return err
	}
	room := cat.RoomByID(roomID)
	if room == nil {
		return fmt.Errorf("unknown room %q: %w", roomID, store.ErrNotFound)
	}
	fn(room)
	if err := c.store.PutCatalog(ctx, tenantID, cat); err != nil {
		return err
	}
	c.invalidate(tenantID)
	return nil
}
