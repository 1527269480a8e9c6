package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	domain "authboilerplate/backend/internal/domain/auth"

	"go.uber.org/zap"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type userSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func summarize(u *domain.User) userSummary {
	return userSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: true, Message: message})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst, answering 400 or 413 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body required")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON payload")
		}
		return false
	}
	return true
}

// writeDomainError maps a use case error onto a status code. Unknown errors
// are logged and answered with fallback so backend details stay private.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case domain.IsTokenFailure(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrSessionInvalid):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmailAlreadyVerified),
		errors.Is(err, domain.ErrAlreadyAdmin),
		errors.Is(err, domain.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPasswordTooLong):
		// Directories wrap hasher errors; answer with the bare message.
		writeError(w, http.StatusBadRequest, domain.ErrPasswordTooLong.Error())
	default:
		s.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
