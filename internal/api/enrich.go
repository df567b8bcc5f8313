package api

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/enrich"
)

type enrichCompanyRequest struct {
	CompanyID string `json:"companyId"`
	ClientID  string `json:"clientId"`
}

func (s *Server) handleEnrichCompany(w http.ResponseWriter, r *http.Request) {
	var req enrichCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CompanyID == "" || req.ClientID == "" {
		writeError(w, r, apperr.Validation("", "Missing companyId or clientId"))
		return
	}

	out, err := s.Enricher.EnrichCompany(r.Context(), req.ClientID, req.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"company":        out.Company,
		"contacts":       out.Contacts,
		"socialProfiles": out.SocialProfiles,
	})
}

type enrichBatchRequest struct {
	CompanyIDs []string `json:"companyIds"`
	ClientID   string   `json:"clientId"`
}

// handleEnrichBatch accepts a batch and runs it in the background. The
// response carries the estimate and remaining provider quota.
func (s *Server) handleEnrichBatch(w http.ResponseWriter, r *http.Request) {
	var req enrichBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ClientID == "" || len(req.CompanyIDs) == 0 {
		writeError(w, r, apperr.Validation("", "Invalid request data"))
		return
	}

	est := s.Enricher.Estimate(len(req.CompanyIDs))
	quota, err := s.Enricher.Usage(r.Context())
	if err != nil {
		zap.L().Warn("api: provider usage unavailable", zap.Error(err))
		quota = []enrich.ProviderUsage{}
	}

	clientID, ids := req.ClientID, req.CompanyIDs
	s.wg.Go(func() {
		if _, err := s.Enricher.BatchEnrich(s.baseCtx, clientID, ids); err != nil {
			zap.L().Error("api: batch enrichment failed", zap.String("client_id", clientID), zap.Error(err))
		}
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":       true,
		"message":       fmt.Sprintf("Started batch enrichment for %d companies", len(ids)),
		"estimatedTime": fmt.Sprintf("%d seconds", est.Seconds),
		"waves":         est.Waves,
		"quota":         quota,
	})
}

func (s *Server) handleEnrichContact(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, r, apperr.Validation("email", "is required"))
		return
	}
	details, err := s.Enricher.EnrichContact(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contact": details})
}

func (s *Server) handleProviderUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.Enricher.Usage(r.Context())
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "providers": usage})
}
