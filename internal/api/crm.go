package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/followup"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
)

func requireClientID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("clientId"))
	if id == "" {
		return "", apperr.Validation("clientId", "is required")
	}
	return id, nil
}

// queryInt parses a positive integer parameter, returning fallback when it
// is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return n, nil
}

func (s *Server) handleRecentVisitors(w http.ResponseWriter, r *http.Request) {
	clientID, err := requireClientID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hours, err := queryInt(r, "hours", s.recentHours)
	if err != nil {
		writeError(w, r, err)
		return
	}

	visits, err := s.Store.ListVisits(r.Context(), store.VisitFilter{
		ClientID: clientID,
		Since:    time.Now().Add(-time.Duration(hours) * time.Hour),
	})
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	if visits == nil {
		visits = []model.Visit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "visits": visits, "count": len(visits)})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	clientID, err := requireClientID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Analytics.Collect(r.Context(), clientID)
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analytics": a})
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	clientID, err := requireClientID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	companies, err := s.Store.ListCompanies(r.Context(), clientID, limit)
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "companies": companies, "count": len(companies)})
}

func (s *Server) handleCompanyContacts(w http.ResponseWriter, r *http.Request) {
	clientID, err := requireClientID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	companyID := chi.URLParam(r, "id")
	company, err := s.Store.GetCompany(r.Context(), clientID, companyID)
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	if company == nil {
		writeError(w, r, apperr.NotFound("store", "Company not found"))
		return
	}

	contacts, err := s.Store.ListContacts(r.Context(), store.ContactFilter{ClientID: clientID, CompanyID: companyID})
	if err != nil {
		writeError(w, r, apperr.Fatal(err))
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contacts": contacts, "count": len(contacts)})
}

func (s *Server) handleCreateFollowUp(w http.ResponseWriter, r *http.Request) {
	var req followup.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.FollowUps.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "followUp": f})
}

func (s *Server) handleListFollowUps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.FollowUps.List(r.Context(), store.FollowUpFilter{
		ClientID:  strings.TrimSpace(q.Get("clientId")),
		ContactID: strings.TrimSpace(q.Get("contactId")),
		Status:    model.FollowUpStatus(strings.TrimSpace(q.Get("status"))),
		Limit:     limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.FollowUp{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "followUps": list, "count": len(list)})
}

func (s *Server) handleCompleteFollowUp(w http.ResponseWriter, r *http.Request) {
	s.transitionFollowUp(w, r, s.FollowUps.Complete)
}

func (s *Server) handleCancelFollowUp(w http.ResponseWriter, r *http.Request) {
	s.transitionFollowUp(w, r, s.FollowUps.Cancel)
}

type followUpTransition func(ctx context.Context, clientID, id string) (*model.FollowUp, error)

func (s *Server) transitionFollowUp(w http.ResponseWriter, r *http.Request, fn followUpTransition) {
	clientID, err := requireClientID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := fn(r.Context(), clientID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "followUp": f})
}
