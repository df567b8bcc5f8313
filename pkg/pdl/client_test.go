package pdl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichCompany(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantNotFound bool
		wantErr      string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"name":"example corp","website":"example.com","industry":"computer software",
				"employee_count":120,"summary":"Makes examples.","logo_url":"https://logo/x.png",
				"location":{"locality":"austin","region":"texas"},
				"linkedin_url":"linkedin.com/company/example","twitter_url":"twitter.com/example"}`,
		},
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"status":404,"error":{"type":"not_found"}}`,
			wantNotFound: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: "unexpected status 500",
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `[`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/company/enrich", r.URL.Path)
				assert.Equal(t, "example.com", r.URL.Query().Get("website"))
				assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL))
			got, err := c.EnrichCompany(context.Background(), "example.com")

			if tt.wantNotFound {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNotFound))
				return
			}
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.False(t, errors.Is(err, ErrNotFound))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "example corp", got.Name)
			assert.Equal(t, 120, got.EmployeeCount)
			require.NotNil(t, got.Location)
			assert.Equal(t, "austin", got.Location.Locality)
			assert.Equal(t, "linkedin.com/company/example", got.LinkedInURL)
			assert.Empty(t, got.FacebookURL)
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{StatusCode: 503, Body: "down"}
	assert.Equal(t, 503, err.HTTPStatus())
	assert.Equal(t, "pdl: unexpected status 503: down", err.Error())
}
