package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evcraddock/sfa-backend/internal/auth"
	"github.com/evcraddock/sfa-backend/internal/customer"
	"github.com/evcraddock/sfa-backend/internal/logging"
	"github.com/evcraddock/sfa-backend/internal/visit"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiErrorDetail writes a JSON error response with a detail field.
func apiErrorDetail(w http.ResponseWriter, msg, detail string, code int) {
	resp := map[string]string{"error": msg}
	if detail != "" {
		resp["detail"] = detail
	}
	apiJSON(w, resp, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleLogin exchanges a username and password for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		apiError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	ip := auth.ClientIP(r)
	if s.limiter.Limited(ip) {
		apiError(w, "too many failed attempts, try again later", http.StatusTooManyRequests)
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.limiter.RecordFailure(ip)
		apiError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.Error("login failed", "username", req.Username, "error", err)
		apiError(w, "login failed", http.StatusInternalServerError)
		return
	}
	s.limiter.Reset(ip)

	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		slog.Error("issuing token", "username", u.Username, "error", err)
		apiError(w, "login failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]any{
		"token":      token,
		"expires_at": expires.UTC(),
		"user": map[string]string{
			"id":   u.SupervisorID,
			"name": u.Username,
		},
	}, http.StatusOK)
}

// handleFeatures lists active features.
func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.catalog.ListFeatures(r.Context())
	if err != nil {
		s.queryFailed(w, r, "listing features", err)
		return
	}
	apiJSON(w, features, http.StatusOK)
}

// handleDetails lists active details, optionally for one feature.
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.catalog.ListDetails(r.Context(), r.URL.Query().Get("feature"))
	if err != nil {
		s.queryFailed(w, r, "listing details", err)
		return
	}
	apiJSON(w, details, http.StatusOK)
}

// handleSubDetails lists active sub-details, optionally for one detail.
func (s *Server) handleSubDetails(w http.ResponseWriter, r *http.Request) {
	subs, err := s.catalog.ListSubDetails(r.Context(), r.URL.Query().Get("detail"))
	if err != nil {
		s.queryFailed(w, r, "listing sub-details", err)
		return
	}
	apiJSON(w, subs, http.StatusOK)
}

// handleDetailsWithSubs returns a feature's details with nested sub-details.
func (s *Server) handleDetailsWithSubs(w http.ResponseWriter, r *http.Request) {
	featureID := r.PathValue("id")
	if featureID == "" {
		apiError(w, "feature id is required", http.StatusBadRequest)
		return
	}

	details, err := s.catalog.DetailsWithSubs(r.Context(), featureID)
	if err != nil {
		s.queryFailed(w, r, "listing details with sub-details", err)
		return
	}
	apiJSON(w, details, http.StatusOK)
}

// handleSubmitVisit stores a visit header and its checklist, replacing any
// earlier submission of the same visit.
func (s *Server) handleSubmitVisit(w http.ResponseWriter, r *http.Request) {
	var p visit.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apiErrorDetail(w, "invalid JSON body", err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.coordinator.Submit(r.Context(), &p)
	if err != nil {
		var verr *visit.Error
		if !errors.As(err, &verr) {
			slog.Error("visit submission failed", "request_id", logging.RequestID(r.Context()), "error", err)
			apiError(w, "submission failed", http.StatusInternalServerError)
			return
		}

		code := http.StatusInternalServerError
		if verr.Kind == visit.KindValidation {
			code = http.StatusBadRequest
		}
		detail := ""
		if verr.Err != nil {
			detail = verr.Err.Error()
		}
		apiErrorDetail(w, verr.Message, detail, code)
		return
	}

	apiJSON(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("visit %s saved with %d checklist entries", res.VisitID, res.Entries),
	}, http.StatusOK)
}

// handleGetVisit returns a stored visit with its checklist entries.
func (s *Server) handleGetVisit(w http.ResponseWriter, r *http.Request) {
	v, err := s.visits.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, visit.ErrNotFound) {
		apiError(w, "visit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.queryFailed(w, r, "reading visit", err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// handleUpdateLocation sets a customer's coordinates.
func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID visit.ID `json:"id_pelanggan"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		UpdatedBy  string   `json:"updated_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.CustomerID == "" || req.Latitude == nil || req.Longitude == nil {
		apiError(w, "id_pelanggan, latitude and longitude are required", http.StatusBadRequest)
		return
	}

	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
			updatedBy = claims.Subject
		}
	}

	err := s.customers.UpdateLocation(r.Context(), string(req.CustomerID), *req.Latitude, *req.Longitude, updatedBy)
	switch {
	case errors.Is(err, customer.ErrNotFound):
		apiError(w, "customer not found", http.StatusNotFound)
		return
	case errors.Is(err, customer.ErrInvalidLocation):
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.queryFailed(w, r, "updating location", err)
		return
	}

	apiJSON(w, map[string]any{
		"success": true,
		"message": "customer location updated",
		"data": map[string]any{
			"id_pelanggan": string(req.CustomerID),
			"latitude":     *req.Latitude,
			"longitude":    *req.Longitude,
		},
	}, http.StatusOK)
}

// queryFailed logs a read failure and writes a generic 500.
func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	slog.Error(action, "request_id", logging.RequestID(r.Context()), "error", err)
	apiError(w, "query failed", http.StatusInternalServerError)
}
