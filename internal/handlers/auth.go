package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"pitchey-api/internal/auth"
	"pitchey-api/internal/messaging"
	"pitchey-api/internal/middleware"
	"pitchey-api/internal/telemetry"
)

// AuthHandler exposes registration and the login session lifecycle.
type AuthHandler struct {
	service  *auth.Service
	resolver middleware.IdentityResolver
	cookies  auth.CookieConfig
	audit    *telemetry.AuditEmitter
}

func NewAuthHandler(service *auth.Service, resolver middleware.IdentityResolver, cookies auth.CookieConfig, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{service: service, resolver: resolver, cookies: cookies, audit: audit}
}

func (h *AuthHandler) Register(r gin.IRoutes) {
	r.POST("/register", h.SignUp)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/session", h.Session)
}

// SignUp handles POST /api/auth/register.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		UserType    string `json:"userType"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), auth.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		UserType:    req.UserType,
		DisplayName: req.DisplayName,
	})
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, err.Error())
		return
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(c, http.StatusConflict, messaging.CodeValidation, "Email or username already registered")
		return
	case err != nil:
		log.Error("register failed", "error", err)
		respondError(c, http.StatusInternalServerError, messaging.CodeInternal, "Internal server error")
		return
	}

	emitAudit(c, h.audit, telemetry.EventRegister, &user.ID, map[string]any{"user_type": user.UserType})
	respondOK(c, http.StatusCreated, gin.H{"user": user})
}

// Login handles POST /api/auth/login. The session id is set as a cookie and
// a bearer token is returned for API clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, messaging.CodeValidation, "Email and password are required")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, messaging.CodeUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Error("login failed", "error", err)
		respondError(c, http.StatusInternalServerError, messaging.CodeInternal, "Internal server error")
		return
	}

	http.SetCookie(c.Writer, h.cookies.SessionCookie(res.Session.ID, res.Session.ExpiresAt))
	emitAudit(c, h.audit, telemetry.EventLogin, &res.User.ID, nil)
	respondOK(c, http.StatusOK, gin.H{
		"user":      res.User,
		"token":     res.Token,
		"expiresAt": res.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout. It always clears the cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	res := h.resolver.Resolve(c.Request.Context(), c.Request)
	sessionID := res.Identity.SessionID
	if sessionID == "" {
		sessionID, _ = h.cookies.SessionIDFromRequest(c.Request)
	}

	if err := h.service.Logout(c.Request.Context(), sessionID); err != nil {
		log.Warn("logout failed", "error", err)
	}
	for _, cookie := range h.cookies.ClearCookies() {
		http.SetCookie(c.Writer, cookie)
	}

	if res.Authenticated {
		emitAudit(c, h.audit, telemetry.EventLogout, &res.Identity.User.ID, nil)
	}
	respondOK(c, http.StatusOK, nil)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	res := h.resolver.Resolve(c.Request.Context(), c.Request)
	if !res.Authenticated {
		respondError(c, http.StatusUnauthorized, messaging.CodeUnauthorized, "Authentication required")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": res.Identity.User, "method": res.Identity.Method})
}
