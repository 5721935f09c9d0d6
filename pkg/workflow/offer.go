package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/compose"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

// OfferLine is one line item of a composed offer.
type OfferLine struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"` // "per person" | "per event"
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Total returns unit price times quantity.
func (l OfferLine) Total() float64 { return l.UnitPrice * float64(l.Quantity) }

// Offer is the structured commercial content of a Step 4 draft. The
// structured rendering is emitted verbatim; only the intro is verbalized.
type Offer struct {
	RoomName     string
	Date         string
	Window       models.TimeWindow
	Participants int
	Lines        []OfferLine
	Deposit      models.DepositInfo
}

// Total sums all line items.
func (o *Offer) Total() float64 {
	var t float64
	for _, l := range o.Lines {
		t += l.Total()
	}
	return t
}

// buildOffer composes the offer from the locked room, the captured profile
// and the product wishes resolvable against the catalog.
func buildOffer(tc *turnContext) *Offer {
	room := tc.catalog.RoomByID(tc.event.LockedRoomID)
	if room == nil {
		return nil
	}
	participants := tc.event.Profile.Participants
	offer := &Offer{
		RoomName:     room.Name,
		Date:         tc.event.ChosenDate,
		Window:       tc.event.Window,
		Participants: participants,
	}

	offer.Lines = append(offer.Lines, OfferLine{
		Name:      room.Name,
		Unit:      "per event",
		UnitPrice: room.UnitPrice,
		Quantity:  1,
	})

	for _, wish := range tc.event.Profile.ProductWishes {
		p := tc.catalog.ProductByName(wish)
		if p == nil || !p.AvailableOn(tc.event.ChosenDate) || !p.AvailableIn(tc.event.LockedRoomID) {
			continue
		}
		qty := 1
		if p.Unit == "per person" && participants > 0 {
			qty = participants
		}
		offer.Lines = append(offer.Lines, OfferLine{
			Name:      p.Name,
			Unit:      p.Unit,
			UnitPrice: p.UnitPrice,
			Quantity:  qty,
		})
	}

	policy := tc.settings.Deposit
	if policy.Required {
		eventDate, _ := time.Parse(dateparse.ISO, tc.event.ChosenDate)
		due := policy.DueDate(tc.now, eventDate)
		offer.Deposit = models.DepositInfo{
			Required: true,
			Amount:   policy.Amount(offer.Total()),
			DueDate:  due.Format(dateparse.ISO),
		}
	}
	return offer
}

// renderOffer produces the plain-text and markdown renderings of the
// structured body. Every figure here is a protected fact.
func renderOffer(o *Offer) (text, markdown string) {
	var t, m strings.Builder

	t.WriteString("Offer\n")
	m.WriteString("## Offer\n\n")
	fmt.Fprintf(&t, "Date: %s\n", o.Date)
	fmt.Fprintf(&m, "**Date:** %s  \n", o.Date)
	if o.Window.Start != "" {
		fmt.Fprintf(&t, "Time: %s-%s\n", o.Window.Start, o.Window.End)
		fmt.Fprintf(&m, "**Time:** %s-%s  \n", o.Window.Start, o.Window.End)
	}
	fmt.Fprintf(&t, "Room: %s\n", o.RoomName)
	fmt.Fprintf(&m, "**Room:** %s  \n", o.RoomName)
	if o.Participants > 0 {
		fmt.Fprintf(&t, "Participants: %d\n", o.Participants)
		fmt.Fprintf(&m, "**Participants:** %d  \n", o.Participants)
	}

	t.WriteString("\n")
	m.WriteString("\n| Item | Unit | Price | Qty | Total |\n|---|---|---|---|---|\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&t, "- %s: %.2f EUR %s x %d = %.2f EUR\n",
			l.Name, l.UnitPrice, l.Unit, l.Quantity, l.Total())
		fmt.Fprintf(&m, "| %s | %s | %.2f EUR | %d | %.2f EUR |\n",
			l.Name, l.Unit, l.UnitPrice, l.Quantity, l.Total())
	}
	fmt.Fprintf(&t, "\nTotal: %.2f EUR\n", o.Total())
	fmt.Fprintf(&m, "\n**Total: %.2f EUR**\n", o.Total())

	if o.Deposit.Required {
		fmt.Fprintf(&t, "Deposit: %.2f EUR, due by %s\n", o.Deposit.Amount, o.Deposit.DueDate)
		fmt.Fprintf(&m, "**Deposit:** %.2f EUR, due by %s\n", o.Deposit.Amount, o.Deposit.DueDate)
	}
	return t.String(), m.String()
}

// offerFacts builds the hard-facts bundle that must survive verbalization
// of the offer intro.
func offerFacts(o *Offer, structured string) compose.Facts {
	var products []string
	for _, l := range o.Lines {
		if l.Name != o.RoomName {
			products = append(products, l.Name)
		}
	}
	return compose.ExtractFacts(structured, []string{o.RoomName}, products)
}

// tonePrompt returns the manager prompt override for a compose kind, or "".
func tonePrompt(prompts map[string]*config.PromptOverride, key string) string {
	if p, ok := prompts[key]; ok {
		return p.Value
	}
	return ""
}
