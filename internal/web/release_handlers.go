package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evcraddock/sfa-backend/internal/release"
	"github.com/evcraddock/sfa-backend/internal/visit"
)

// handleLatestVersion returns the newest app build, or null when none is published.
func (s *Server) handleLatestVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.releases.Latest(r.Context())
	if err != nil {
		s.queryFailed(w, r, "reading latest version", err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// handleListVersions lists every published build.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.releases.List(r.Context())
	if err != nil {
		s.queryFailed(w, r, "listing versions", err)
		return
	}
	apiJSON(w, versions, http.StatusOK)
}

// handleAddVersion publishes a build that is hosted at download_url.
func (s *Server) handleAddVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VersionName   string      `json:"version_name"`
		VersionCode   json.Number `json:"version_code"`
		DownloadURL   string      `json:"download_url"`
		ReleaseNotes  string      `json:"release_notes"`
		IsForceUpdate visit.Flag  `json:"is_force_update"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrorDetail(w, "invalid JSON body", err.Error(), http.StatusBadRequest)
		return
	}

	var code int64
	if req.VersionCode != "" {
		n, err := req.VersionCode.Int64()
		if err != nil {
			apiError(w, "version_code must be an integer", http.StatusBadRequest)
			return
		}
		code = n
	}

	v, err := s.releases.Add(r.Context(), release.NewVersion{
		VersionName:  req.VersionName,
		VersionCode:  code,
		DownloadURL:  req.DownloadURL,
		ReleaseNotes: req.ReleaseNotes,
		ForceUpdate:  bool(req.IsForceUpdate),
	})
	if errors.Is(err, release.ErrInvalid) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.queryFailed(w, r, "adding version", err)
		return
	}

	apiJSON(w, map[string]any{"success": true, "id": v.ID}, http.StatusOK)
}

// handleDeleteVersion removes a build by id.
func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apiError(w, "invalid version id", http.StatusBadRequest)
		return
	}

	err = s.releases.Delete(r.Context(), id)
	if errors.Is(err, release.ErrNotFound) {
		apiError(w, "version not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.queryFailed(w, r, "deleting version", err)
		return
	}

	apiJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
