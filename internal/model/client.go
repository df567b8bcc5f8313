package model

import "time"

// Client is a tenant. It owns companies, visits, and follow-ups and
// authenticates tracking pings with its API key.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	APIKey    string    `json:"apiKey,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
