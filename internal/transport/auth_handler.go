package transport

import (
	"errors"
	"net/http"

	"xcar/internal/domain"
	"xcar/internal/middleware"
	"xcar/internal/repository"
	"xcar/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Message string `json:"message"`
	IsAdmin bool   `json:"isAdmin"`
}

// AuthHandler handles account registration and login
type AuthHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes behind the given middlewares
func (h *AuthHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middlewares...)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			middleware.RespondWithErrorCode(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
			return
		}

		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	h.logger.Info("User registered successfully",
		zap.String("user_id", user.ID),
		zap.Bool("is_admin", user.IsAdmin),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, RegisterResponse{
		Message: "Registration successful",
		IsAdmin: user.IsAdmin,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	session, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondWithErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in successfully", zap.Bool("is_admin", session.IsAdmin))
	middleware.RespondWithJSON(w, http.StatusOK, session)
}
