package server

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/hiretree/internal/server/middleware"
	"github.com/jonathan/hiretree/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService   *UserService
	jwtService    *JWTService
	validator     *validator.Validate
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		jwtService:    jwtService,
		validator:     validator.New(),
		secureCookies: secureCookies,
	}
}

// Register creates an account and starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.startSession(w, user, http.StatusCreated)
}

// Login starts a session for valid credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.startSession(w, user, http.StatusOK)
}

// Me returns the authenticated user. It must run behind middleware.AuthMiddleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted account is treated as no session.
		if HTTPStatus(err) == http.StatusNotFound {
			errorResponse(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user types.User, code int) {
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	http.SetCookie(w, h.cookie(token, int(h.jwtService.TTL()/time.Second)))
	w.Header().Set("Authorization", "Bearer "+token)
	jsonResponse(w, code, user)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) fail(w http.ResponseWriter, err error) {
	code := HTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	errorResponse(w, code, msg)
}
