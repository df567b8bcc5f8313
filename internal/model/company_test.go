package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompanyIsEnriched(t *testing.T) {
	t.Parallel()

	c := Company{Name: "Acme"}
	assert.False(t, c.IsEnriched())

	now := time.Now()
	c.EnrichedAt = &now
	assert.True(t, c.IsEnriched())
}

func TestVisitIdentified(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Visit{}).Identified())
	assert.True(t, (&Visit{CompanyID: "co-1"}).Identified())
}

func TestCandidatePersistable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    CandidateContact
		want bool
	}{
		{"complete", CandidateContact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, true},
		{"no email", CandidateContact{FirstName: "Ada", LastName: "Lovelace"}, false},
		{"no first name", CandidateContact{LastName: "Lovelace", Email: "ada@example.com"}, false},
		{"blank last name", CandidateContact{FirstName: "Ada", LastName: "  ", Email: "ada@example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.c.Persistable())
		})
	}
}

func TestContactSourceValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ContactSourceEnrichment.Valid())
	assert.True(t, ContactSourceManual.Valid())
	assert.True(t, ContactSourceImport.Valid())
	assert.False(t, ContactSource("scraped").Valid())
}

func TestContactFullName(t *testing.T) {
	t.Parallel()

	c := Contact{FirstName: "Grace", LastName: "Hopper"}
	assert.Equal(t, "Grace Hopper", c.FullName())
	assert.Equal(t, "Grace", (&Contact{FirstName: "Grace"}).FullName())
}
