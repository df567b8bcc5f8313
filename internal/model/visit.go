package model

import "time"

// Location is a coarse geographic snapshot taken at visit time.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// UnknownLocation is recorded when geolocation is unavailable.
var UnknownLocation = Location{Country: "Unknown", Region: "Unknown", City: "Unknown"}

// Visit is one tracked page view.
type Visit struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	CompanyID string    `json:"companyId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
	Pages     []string  `json:"pages"`
	Duration  int       `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
	Location  Location  `json:"location"`
}

// Identified reports whether the visit was attributed to a company.
func (v *Visit) Identified() bool {
	return v.CompanyID != ""
}
