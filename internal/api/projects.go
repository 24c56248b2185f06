package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfreitag/solarledger/internal/auth"
	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/production"
	"github.com/mfreitag/solarledger/internal/storage"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
)

// requirePerm enforces the token's role against an object/action pair
// for routes that multiplex several methods on one path. Returns the
// token on success, nil after writing the refusal.
func (s *Server) requirePerm(w http.ResponseWriter, r *http.Request, obj, act string) *storage.Token {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	allowed, err := s.auth.Enforce(token.Role, obj, act)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}
	return token
}

// ownsProject decides whether a token may touch a project: owners
// always, admins everywhere.
func ownsProject(token *storage.Token, p *storage.Project) bool {
	return p.UserID == token.UserID || token.Role == "admin"
}

type projectRequest struct {
	Name           string                    `json:"name"`
	Notes          string                    `json:"notes,omitempty"`
	Spec           solarproviders.SystemSpec `json:"system_spec"`
	Params         *finance.Parameters       `json:"params,omitempty"`
	ParamOverrides map[string]float64        `json:"param_overrides,omitempty"`
}

// /api/v1/projects: GET lists the caller's projects, POST creates one.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token := s.requirePerm(w, r, "projects", "read")
		if token == nil {
			return
		}
		var (
			projects []storage.Project
			err      error
		)
		if token.Role == "admin" {
			projects, err = s.storage.ListAllProjects(r.Context())
		} else {
			projects, err = s.storage.ListProjects(r.Context(), token.UserID)
		}
		if err != nil {
			writeError(w, "/api/v1/projects", err)
			return
		}
		if projects == nil {
			projects = []storage.Project{}
		}
		writeJSON(w, http.StatusOK, projects)

	case http.MethodPost:
		token := s.requirePerm(w, r, "projects", "write")
		if token == nil {
			return
		}
		var req projectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, "/api/v1/projects", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		if req.Name == "" {
			writeError(w, "/api/v1/projects", fmt.Errorf("%w: name is required", finance.ErrInvalidInput))
			return
		}
		if err := req.Spec.Validate(); err != nil {
			writeError(w, "/api/v1/projects", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		params, err := resolveParams(req.Params, req.ParamOverrides)
		if err != nil {
			writeError(w, "/api/v1/projects", err)
			return
		}

		specJSON, _ := json.Marshal(req.Spec)
		paramsJSON, _ := json.Marshal(params)
		project := storage.Project{
			ID:        uuid.New().String(),
			UserID:    token.UserID,
			Name:      req.Name,
			Notes:     req.Notes,
			Latitude:  req.Spec.Latitude,
			Longitude: req.Spec.Longitude,
			Spec:      specJSON,
			Params:    paramsJSON,
		}
		if err := s.storage.CreateProject(r.Context(), project); err != nil {
			writeError(w, "/api/v1/projects", err)
			return
		}
		created, err := s.storage.GetProject(r.Context(), project.ID)
		if err != nil || created == nil {
			writeError(w, "/api/v1/projects", fmt.Errorf("read back created project: %w", err))
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w)
	}
}

// /api/v1/projects/{id} plus the /analyze action:
//
//	GET    /api/v1/projects/{id}          fetch
//	PUT    /api/v1/projects/{id}          update
//	DELETE /api/v1/projects/{id}          delete
//	POST   /api/v1/projects/{id}/analyze  recompute and store the result
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/projects/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if action == "analyze" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.analyzeProject(w, r, id)
		return
	}
	if action != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		token := s.requirePerm(w, r, "projects", "read")
		if token == nil {
			return
		}
		project, err := s.fetchOwnedProject(w, r, token, id)
		if project == nil || err != nil {
			return
		}
		writeJSON(w, http.StatusOK, project)

	case http.MethodPut:
		token := s.requirePerm(w, r, "projects", "write")
		if token == nil {
			return
		}
		project, err := s.fetchOwnedProject(w, r, token, id)
		if project == nil || err != nil {
			return
		}
		var req projectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, "/api/v1/projects/", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		if err := req.Spec.Validate(); err != nil {
			writeError(w, "/api/v1/projects/", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		params, err := resolveParams(req.Params, req.ParamOverrides)
		if err != nil {
			writeError(w, "/api/v1/projects/", err)
			return
		}

		if req.Name != "" {
			project.Name = req.Name
		}
		project.Notes = req.Notes
		project.Latitude = req.Spec.Latitude
		project.Longitude = req.Spec.Longitude
		project.Spec, _ = json.Marshal(req.Spec)
		project.Params, _ = json.Marshal(params)
		// spec changed, stored result is stale
		project.Result = nil
		project.LastAnalyzedAt = nil

		if err := s.storage.UpdateProject(r.Context(), *project); err != nil {
			writeError(w, "/api/v1/projects/", err)
			return
		}
		writeJSON(w, http.StatusOK, project)

	case http.MethodDelete:
		token := s.requirePerm(w, r, "projects", "write")
		if token == nil {
			return
		}
		project, err := s.fetchOwnedProject(w, r, token, id)
		if project == nil || err != nil {
			return
		}
		if err := s.storage.DeleteProject(r.Context(), id); err != nil {
			writeError(w, "/api/v1/projects/", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

// fetchOwnedProject loads a project and checks ownership, writing the
// HTTP refusal itself. A nil project means the response is already sent.
func (s *Server) fetchOwnedProject(w http.ResponseWriter, r *http.Request, token *storage.Token, id string) (*storage.Project, error) {
	project, err := s.storage.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, "/api/v1/projects/", err)
		return nil, err
	}
	if project == nil {
		http.NotFound(w, r)
		return nil, nil
	}
	if !ownsProject(token, project) {
		// hide other users' projects entirely
		http.NotFound(w, r)
		return nil, nil
	}
	return project, nil
}

func (s *Server) analyzeProject(w http.ResponseWriter, r *http.Request, id string) {
	token := s.requirePerm(w, r, "analyses", "write")
	if token == nil {
		return
	}
	project, err := s.fetchOwnedProject(w, r, token, id)
	if project == nil || err != nil {
		return
	}

	var spec solarproviders.SystemSpec
	if err := json.Unmarshal(project.Spec, &spec); err != nil {
		writeError(w, "/api/v1/projects/", fmt.Errorf("%w: stored spec corrupt: %v", finance.ErrInvalidInput, err))
		return
	}
	params := finance.DefaultParameters()
	if len(project.Params) > 0 {
		if err := json.Unmarshal(project.Params, &params); err != nil {
			writeError(w, "/api/v1/projects/", fmt.Errorf("%w: stored params corrupt: %v", finance.ErrInvalidInput, err))
			return
		}
	}

	analysis, err := s.engine.AnalyzeSystem(r.Context(), production.AnalysisRequest{Spec: spec, Params: params})
	if err != nil {
		writeError(w, "/api/v1/projects/", err)
		return
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		writeError(w, "/api/v1/projects/", err)
		return
	}
	now := time.Now()
	project.Result = payload
	project.LastAnalyzedAt = &now
	if err := s.storage.UpdateProject(r.Context(), *project); err != nil {
		writeError(w, "/api/v1/projects/", err)
		return
	}

	// optional report mail, best effort
	if to := r.URL.Query().Get("email"); to != "" && analysis.Financials != nil {
		if err := s.notifier.SendAnalysisReport(r.Context(), to, project.Name, analysis.Financials); err != nil {
			s.log.Warn().Err(err).Str("project", project.ID).Msg("report email failed")
		}
	}

	writeJSON(w, http.StatusOK, analysis)
}
