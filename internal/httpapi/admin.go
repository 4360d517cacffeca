package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

// mountAdmin registers the runtime configuration API. Every response uses a
// {"success": bool, ...} envelope so the dashboard can treat all admin calls
// uniformly.
func (s *Server) mountAdmin(r chi.Router) {
	r.Get("/providers", s.handleListProviders)
	r.Post("/providers", s.handleAddProvider)
	r.Get("/providers/{provider}", s.handleGetProvider)
	r.Get("/providers/{provider}/userdata", s.handleGetUserdata)
	r.Put("/providers/{provider}/userdata", s.handleUpdateUserdata)
	r.Post("/providers/{provider}/reset", s.handleResetProvider)
	r.Post("/reset-all", s.handleResetAll)
	r.Get("/failure-modes", s.handleListFailureModes)
	r.Put("/failure-modes/{mode}", s.handleSetFailureMode)
	r.Post("/failure-modes/reset", s.handleResetFailureModes)
}

func writeAdminError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"providers": s.providers.Summaries("/auth"),
	})
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	p, ok := s.providers.Get(id)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "Provider not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "provider": p})
}

func (s *Server) handleGetUserdata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	profile, ok := s.providers.GetProfile(id)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "Provider not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": id,
		"userData": profile,
	})
}

// handleUpdateUserdata merges the request body into the provider's mock
// profile. Merge semantics let tests tweak one field without resending the
// whole profile.
func (s *Server) handleUpdateUserdata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")

	var fields registry.Profile
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeAdminError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	merged, err := s.providers.UpdateProfile(id, fields)
	if err != nil {
		writeAdminError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Infow("provider userdata updated", "provider", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": id,
		"userData": merged,
	})
}

type addProviderRequest struct {
	ProviderID string           `json:"providerId"`
	Name       string           `json:"name"`
	Scopes     []string         `json:"scopes"`
	UserData   registry.Profile `json:"userData"`
}

func (s *Server) handleAddProvider(w http.ResponseWriter, r *http.Request) {
	var req addProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ProviderID == "" {
		writeAdminError(w, http.StatusBadRequest, "providerId is required")
		return
	}

	p, err := s.providers.AddCustom(req.ProviderID, req.Name, req.Scopes, req.UserData)
	if err != nil {
		writeAdminError(w, http.StatusConflict, err.Error())
		return
	}
	s.logger.Infow("custom provider registered", "provider", p.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "provider": p})
}

// handleResetProvider restores a built-in provider to its defaults;
// resetting a custom provider removes it.
func (s *Server) handleResetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	p, err := s.providers.Reset(id)
	if err != nil {
		writeAdminError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Infow("provider reset", "provider", id, "removed", p == nil)
	resp := map[string]any{"success": true, "provider": id}
	if p == nil {
		resp["removed"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResetAll restores every provider to its defaults and disables every
// failure mode, returning the simulator to a pristine state.
func (s *Server) handleResetAll(w http.ResponseWriter, _ *http.Request) {
	s.providers.ResetAll()
	s.modes.Reset()
	s.logger.Infow("simulator state reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All providers and failure modes reset to defaults",
	})
}

func (s *Server) handleListFailureModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"failureModes": s.modes.Snapshot(),
	})
}

type setFailureModeRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleSetFailureMode(w http.ResponseWriter, r *http.Request) {
	mode := simulation.Mode(chi.URLParam(r, "mode"))

	var req setFailureModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeAdminError(w, http.StatusBadRequest, "Body must be {\"enabled\": true|false}")
		return
	}

	if err := s.modes.Set(mode, *req.Enabled); err != nil {
		writeAdminError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Infow("failure mode toggled", "mode", mode, "enabled", *req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mode":    mode,
		"enabled": *req.Enabled,
	})
}

func (s *Server) handleResetFailureModes(w http.ResponseWriter, _ *http.Request) {
	s.modes.Reset()
	s.logger.Infow("failure modes reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"failureModes": s.modes.Snapshot(),
	})
}
