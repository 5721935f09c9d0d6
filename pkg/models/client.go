package models

import "time"

// BillingAddress holds the structured billing fields captured from the
// client during negotiation. All fields are optional until Complete.
type BillingAddress struct {
	Company    string `json:"company,omitempty"`
	Name       string `json:"name,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	VATID      string `json:"vat_id,omitempty"`
}

// Complete reports whether the minimum billing fields are present.
func (b BillingAddress) Complete() bool {
	return b.Name != "" && b.Street != "" && b.PostalCode != "" && b.City != ""
}

// Client is one contact identified by (tenant_id, email).
// Created on the first inbound message from that address.
type Client struct {
	TenantID  string         `json:"tenant_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Company   string         `json:"company,omitempty"`
	Billing   BillingAddress `json:"billing,omitempty"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
