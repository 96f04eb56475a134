package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/auth"
	"github.com/hwstore/hwstore-server/internal/store"
	"github.com/hwstore/hwstore-server/internal/utils"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStatePath   = "/api/auth/google"
	oauthStateMaxAge = 10 * 60 // seconds
)

// AuthHandlers provides HTTP handlers for login and account endpoints.
type AuthHandlers struct {
	authService *auth.Service
	google      *auth.GoogleProvider
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance. google may be nil.
func NewAuthHandlers(authService *auth.Service, google *auth.GoogleProvider, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		google:      google,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Google    bool      `json:"google"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Google:    u.GoogleID != "",
		CreatedAt: u.CreatedAt,
	}
}

// Register handles local account creation.
// POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid email"})
		case errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "password must be at least 6 characters"})
		default:
			h.log.Error().Err(err).Str("email", req.Email).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("user_id", session.User.ID).Msg("user registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: session.Token, User: userResponse(session.User)})
}

// Login handles local login.
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", session.User.ID).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: session.Token, User: userResponse(session.User)})
}

// GoogleLogin redirects to the Google consent screen.
// GET /api/auth/google
func (h *AuthHandlers) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "google login not configured"})
		return
	}

	state := utils.NewID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, oauthStatePath, "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

// GoogleCallback completes the code flow and hands the token to the storefront.
// GET /api/auth/google/callback
func (h *AuthHandlers) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "google login not configured"})
		return
	}

	expected, err := c.Cookie(oauthStateCookie)
	state := c.Query("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		h.log.Debug().Msg("oauth state mismatch")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid oauth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, oauthStatePath, "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing authorization code"})
		return
	}

	profile, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.Warn().Err(err).Msg("google exchange failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to authenticate with google"})
		return
	}

	session, err := h.authService.LoginWithGoogle(c.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, auth.ErrIncompleteProfile) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "google profile is missing an email"})
			return
		}
		if errors.Is(err, auth.ErrUnverifiedEmail) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "google email is not verified"})
			return
		}
		h.log.Error().Err(err).Msg("failed to login google user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", session.User.ID).Msg("user logged in with google")
	c.Redirect(http.StatusFound, "/?token="+url.QueryEscape(session.Token))
}

// Me returns the account behind the bearer token.
// GET /api/me
func (h *AuthHandlers) Me(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}
