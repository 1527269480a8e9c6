package httpserver

import (
	"net/http"
	"strings"

	domain "authboilerplate/backend/internal/domain/auth"
	authusecase "authboilerplate/backend/internal/usecase/auth"
	userusecase "authboilerplate/backend/internal/usecase/user"

	"go.uber.org/zap"
)

const forgotPasswordMessage = "If an account with that email exists, we've sent a password reset link."

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/api/register", http.HandlerFunc(s.handleRegister))
	s.router.Handle("/api/auth/login", http.HandlerFunc(s.handleLogin))
	s.router.Handle("/api/auth/verify-email", http.HandlerFunc(s.handleVerifyEmail))
	s.router.Handle("/api/auth/resend-verification", http.HandlerFunc(s.handleResendVerification))
	s.router.Handle("/api/auth/forgot-password", http.HandlerFunc(s.handleForgotPassword))
	s.router.Handle("/api/auth/verify-reset-token", http.HandlerFunc(s.handleVerifyResetToken))
	s.router.Handle("/api/auth/reset-password", http.HandlerFunc(s.handleResetPassword))

	authenticated := s.authMiddleware
	s.router.Handle("/api/auth/session", authenticated(http.HandlerFunc(s.handleSession)))
	s.router.Handle("/api/profile/update", authenticated(http.HandlerFunc(s.handleProfileUpdate)))

	s.router.Handle("/api/admin/promote-user", s.adminOnly(http.HandlerFunc(s.handlePromoteUser)))
	s.router.Handle("/api/admin/users", s.adminOnly(http.HandlerFunc(s.handleAdminUsers)))
	s.router.Handle("/api/admin/users/", s.adminOnly(http.HandlerFunc(s.handleAdminUserByID)))

	s.router.Handle("/api/debug/users", s.devOnly(http.HandlerFunc(s.handleDebugUsers)))
	s.router.Handle("/api/test-email", s.devOnly(http.HandlerFunc(s.handleTestEmail)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":    "ok",
		"directory": string(s.directoryMode),
	}
	if s.fallbackReason != "" {
		body["fallbackReason"] = s.fallbackReason
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := firstInvalid(checkEmail(payload.Email), checkPassword(payload.Password), checkName(payload.Name)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.authService.Register(r.Context(), authusecase.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		s.writeDomainError(w, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    summarize(user),
		"message": "Registration successful! Please check your email to verify your account.",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := s.authService.Login(r.Context(), domain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.writeDomainError(w, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	session, _ := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": session})
}

type tokenPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload tokenPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := checkToken(payload.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.authService.VerifyEmail(r.Context(), strings.TrimSpace(payload.Token)); err != nil {
		s.writeDomainError(w, err, "Email verification failed")
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := checkEmail(payload.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.authService.ResendVerification(r.Context(), payload.Email); err != nil {
		s.writeDomainError(w, err, "Failed to resend verification email")
		return
	}
	writeMessage(w, http.StatusOK, "Verification email sent successfully")
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := checkEmail(payload.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.authService.ForgotPassword(r.Context(), payload.Email); err != nil {
		s.writeDomainError(w, err, "Failed to process password reset request")
		return
	}
	writeMessage(w, http.StatusOK, forgotPasswordMessage)
}

func (s *Server) handleVerifyResetToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload tokenPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := checkToken(payload.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email, err := s.authService.VerifyResetToken(r.Context(), strings.TrimSpace(payload.Token))
	if err != nil {
		s.writeDomainError(w, err, "Token verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Token is valid",
		"email":   email,
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload tokenPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := firstInvalid(checkToken(payload.Token), checkPassword(payload.Password)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.authService.ResetPassword(r.Context(), strings.TrimSpace(payload.Token), payload.Password); err != nil {
		s.writeDomainError(w, err, "Password reset failed")
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeMethodNotAllowed(w, http.MethodPut)
		return
	}
	session, _ := sessionFromContext(r.Context())

	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := firstInvalid(checkName(payload.Name), checkEmail(payload.Email)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	before, err := s.userService.Get(r.Context(), session.UserID)
	if err != nil {
		s.writeDomainError(w, err, "Profile update failed")
		return
	}
	user, err := s.userService.UpdateProfile(r.Context(), session.UserID, userusecase.ProfileInput{
		Name:  &payload.Name,
		Email: &payload.Email,
	})
	if err != nil {
		s.writeDomainError(w, err, "Profile update failed")
		return
	}

	// A new address starts unverified and gets its own verification link.
	verificationSent := false
	if user.Email != before.Email && !user.EmailVerified {
		if err := s.authService.ResendVerification(r.Context(), user.Email); err != nil {
			s.logger.Warn("verification for changed email failed", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			verificationSent = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"user":             summarize(user),
		"verificationSent": verificationSent,
	})
}

func (s *Server) handlePromoteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.UserID) == "" {
		writeError(w, http.StatusBadRequest, errUserIDMissing.Error())
		return
	}

	user, err := s.userService.Promote(r.Context(), payload.UserID)
	if err != nil {
		s.writeDomainError(w, err, "Failed to promote user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User " + user.Email + " has been promoted to admin",
		"user":    user,
	})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	users, err := s.userService.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err, "Failed to get users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/users/"), "/ ")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, errUserIDMissing.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.userService.Get(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err, "Failed to get user")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case http.MethodDelete:
		if session, _ := sessionFromContext(r.Context()); session.UserID == id {
			writeError(w, http.StatusBadRequest, "Cannot delete your own account")
			return
		}
		if err := s.userService.Delete(r.Context(), id); err != nil {
			s.writeDomainError(w, err, "Failed to delete user")
			return
		}
		writeMessage(w, http.StatusOK, "User deleted")
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) handleDebugUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.userService.List(r.Context())
		if err != nil {
			s.writeDomainError(w, err, "Failed to get users")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(users),
			"users":   users,
		})
	case http.MethodDelete:
		removed, err := s.userService.PurgeExcept(r.Context(), s.protectedIDs)
		if err != nil {
			s.writeDomainError(w, err, "Failed to delete users")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"deleted": removed,
			"message": "Deleted users, kept fixtures",
		})
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := checkEmail(payload.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.authService.SendTestEmail(r.Context(), payload.Email) {
		writeError(w, http.StatusInternalServerError, "Failed to send test email")
		return
	}
	writeMessage(w, http.StatusOK, "Test email sent successfully")
}
