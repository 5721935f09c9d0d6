package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venueflow/venueflow/pkg/models"
)

func TestParseBilling(t *testing.T) {
	t.Run("full address block", func(t *testing.T) {
		var addr models.BillingAddress
		body := "Company: Acme GmbH\nMusterstrasse 12\n80331 Munich"
		changed := parseBilling(body, &addr, "Anna Muster")

		assert.True(t, changed)
		assert.Equal(t, "Acme GmbH", addr.Company)
		assert.Equal(t, "Musterstrasse 12", addr.Street)
		assert.Equal(t, "80331", addr.PostalCode)
		assert.Equal(t, "Munich", addr.City)
		assert.Equal(t, "Anna Muster", addr.Name, "client name backfills the billing name")
		assert.True(t, addr.Complete())
	})

	t.Run("explicit name label", func(t *testing.T) {
		var addr models.BillingAddress
		parseBilling("Name: Bernd Beispiel\nHauptweg 3\n10115 Berlin", &addr, "fallback")
		assert.Equal(t, "Bernd Beispiel", addr.Name)
	})

	t.Run("vat id", func(t *testing.T) {
		var addr models.BillingAddress
		parseBilling("Our VAT is DE 123456789, address Hauptweg 3, 10115 Berlin", &addr, "")
		assert.Equal(t, "DE123456789", addr.VATID)
	})

	t.Run("set fields are never cleared", func(t *testing.T) {
		addr := models.BillingAddress{
			Name:       "Anna Muster",
			Street:     "Musterstrasse 12",
			PostalCode: "80331",
			City:       "Munich",
		}
		changed := parseBilling("thanks, that is all", &addr, "")
		assert.False(t, changed)
		assert.Equal(t, "Musterstrasse 12", addr.Street)
		assert.Equal(t, "80331", addr.PostalCode)
	})

	t.Run("later message adds missing pieces", func(t *testing.T) {
		addr := models.BillingAddress{Name: "Anna Muster"}
		parseBilling("The address is Gartenweg 7", &addr, "")
		assert.Equal(t, "Gartenweg 7", addr.Street)
		assert.False(t, addr.Complete())

		parseBilling("Postal code 50667 Cologne", &addr, "")
		assert.Equal(t, "50667", addr.PostalCode)
		assert.Equal(t, "Cologne", addr.City)
		assert.True(t, addr.Complete())
	})

	t.Run("no billing content", func(t *testing.T) {
		var addr models.BillingAddress
		assert.False(t, parseBilling("see you next week", &addr, ""))
		assert.Zero(t, addr)
	})
}
