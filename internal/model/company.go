package model

import "time"

// Company is a business entity owned by a single client. Domain is the
// natural key within a client when present; otherwise name is used.
type Company struct {
	ID             string            `json:"id"`
	ClientID       string            `json:"clientId"`
	Name           string            `json:"name"`
	Domain         string            `json:"domain"`
	Industry       string            `json:"industry,omitempty"`
	Size           string            `json:"size,omitempty"`
	Location       string            `json:"location,omitempty"`
	Description    string            `json:"description,omitempty"`
	Website        string            `json:"website,omitempty"`
	LogoURL        string            `json:"logo,omitempty"`
	SocialProfiles map[string]string `json:"socialProfiles,omitempty"`
	EnrichedAt     *time.Time        `json:"enrichedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// IsEnriched reports whether the company has been through enrichment at least once.
func (c *Company) IsEnriched() bool {
	return c.EnrichedAt != nil
}

// CompanyProfile is the firmographic view of a company returned by a data
// provider. Empty fields mean the provider had no value.
type CompanyProfile struct {
	Name        string `json:"name,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Size        string `json:"size,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logo,omitempty"`
}

// Size buckets used across the dashboard and stats.
const (
	SizeUnknown = "Unknown"
	Size1To10   = "1-10"
	Size11To50  = "11-50"
	Size51To200 = "51-200"
	Size201To1K = "201-1000"
	Size1KTo5K  = "1000-5000"
	Size5KPlus  = "5000+"
)

// IndustryUnknown is recorded for companies identified without firmographic data.
const IndustryUnknown = "Unknown"
