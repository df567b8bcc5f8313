package model

import (
	"strings"
	"time"
)

// ContactSource records how a contact entered the system.
type ContactSource string

const (
	ContactSourceEnrichment ContactSource = "enrichment"
	ContactSourceManual     ContactSource = "manual"
	ContactSourceImport     ContactSource = "import"
)

// Valid reports whether s is a known source.
func (s ContactSource) Valid() bool {
	switch s {
	case ContactSourceEnrichment, ContactSourceManual, ContactSourceImport:
		return true
	}
	return false
}

// Contact is a person at a company. Contacts are append-only.
type Contact struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"clientId"`
	CompanyID   string        `json:"companyId"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Title       string        `json:"title,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	LinkedInURL string        `json:"linkedinUrl,omitempty"`
	Source      ContactSource `json:"source"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CandidateContact is a contact as reported by a discovery provider, before
// it is persisted.
type CandidateContact struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	Title       string `json:"title,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
	Provider    string `json:"source"`
}

// Persistable reports whether the candidate carries enough identity to be
// stored as a Contact.
func (c CandidateContact) Persistable() bool {
	return strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.FirstName) != "" &&
		strings.TrimSpace(c.LastName) != ""
}

// ContactDetails is the per-person enrichment result for a known email.
type ContactDetails struct {
	Email       string `json:"email"`
	Title       string `json:"title,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`
}
