package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mfreitag/solarledger/internal/auth"
	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// POST /api/v1/auth/register. The first registered user becomes admin;
// everyone after that is a viewer unless an admin token asks for more.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/auth/register", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, "/api/v1/auth/register",
			fmt.Errorf("%w: username and a password of at least 8 characters are required", finance.ErrInvalidInput))
		return
	}

	users, err := s.storage.ListUsers(r.Context())
	if err != nil {
		writeError(w, "/api/v1/auth/register", err)
		return
	}

	role := "viewer"
	if len(users) == 0 {
		role = "admin"
	} else if req.Role != "" && req.Role != "viewer" {
		// elevated roles need an admin caller
		token, err := s.bearerToken(r)
		if err != nil || token.Role != "admin" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		role = req.Role
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, "/api/v1/auth/register", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// bearerToken validates the Authorization header directly, for the one
// endpoint that sits outside the auth middleware but can act on a token.
func (s *Server) bearerToken(r *http.Request) (*storage.Token, error) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}
	return s.auth.ValidateToken(r.Context(), parts[1])
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Expiration string `json:"expiration,omitempty"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *storage.User `json:"user"`
}

// POST /api/v1/auth/login exchanges credentials for a bearer token
// carrying the user's role.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/auth/login", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		writeError(w, "/api/v1/auth/login", err)
		return
	}

	expiresAt, err := auth.ParseExpiration(req.Expiration)
	if err != nil {
		writeError(w, "/api/v1/auth/login", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}

	_, raw, err := s.auth.CreateToken(r.Context(), user.ID, "login", user.Role, expiresAt)
	if err != nil {
		writeError(w, "/api/v1/auth/login", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: raw, User: user})
}

type createTokenRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Expiration string `json:"expiration,omitempty"`
}

type createTokenResponse struct {
	Token    string         `json:"token"`
	Metadata *storage.Token `json:"metadata"`
}

// roleRank orders the built-in roles so a token can never out-rank the
// token that created it.
func roleRank(role string) int {
	switch role {
	case "admin":
		return 3
	case "editor":
		return 2
	case "viewer":
		return 1
	default:
		return 0
	}
}

// /api/v1/auth/tokens: GET lists the caller's tokens, POST mints a new
// one with an equal or narrower role, DELETE revokes by id.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tokens, err := s.storage.ListTokens(r.Context(), token.UserID)
		if err != nil {
			writeError(w, "/api/v1/auth/tokens", err)
			return
		}
		if tokens == nil {
			tokens = []storage.Token{}
		}
		writeJSON(w, http.StatusOK, tokens)

	case http.MethodPost:
		var req createTokenRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, "/api/v1/auth/tokens", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		role := req.Role
		if role == "" {
			role = token.Role
		}
		if roleRank(role) == 0 || roleRank(role) > roleRank(token.Role) {
			writeError(w, "/api/v1/auth/tokens",
				fmt.Errorf("%w: role %q exceeds the caller's role", finance.ErrInvalidInput, role))
			return
		}
		expiresAt, err := auth.ParseExpiration(req.Expiration)
		if err != nil {
			writeError(w, "/api/v1/auth/tokens", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}

		meta, raw, err := s.auth.CreateToken(r.Context(), token.UserID, req.Name, role, expiresAt)
		if err != nil {
			writeError(w, "/api/v1/auth/tokens", err)
			return
		}
		writeJSON(w, http.StatusCreated, createTokenResponse{Token: raw, Metadata: meta})

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, "/api/v1/auth/tokens", fmt.Errorf("%w: id is required", finance.ErrInvalidInput))
			return
		}
		existing, err := s.storage.GetToken(r.Context(), id)
		if err != nil {
			writeError(w, "/api/v1/auth/tokens", err)
			return
		}
		if existing == nil || (existing.UserID != token.UserID && token.Role != "admin") {
			http.NotFound(w, r)
			return
		}
		if err := s.storage.DeleteToken(r.Context(), id); err != nil {
			writeError(w, "/api/v1/auth/tokens", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
