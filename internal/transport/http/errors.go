package http

import (
	"errors"
	"net/http"

	"classroom-quiz-service/internal/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Each service error gets its own stable code so clients can tell them apart.
var errorMappings = []errorMapping{
	{domain.ErrQuizNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrClassNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrNotificationNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidJoinCode, http.StatusNotFound, "invalid_join_code"},
	{domain.ErrQuizNotActive, http.StatusBadRequest, "quiz_not_active"},
	{domain.ErrNotEnrolled, http.StatusForbidden, "not_enrolled"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrUserSuspended, http.StatusForbidden, "user_suspended"},
	{domain.ErrAlreadySubmitted, http.StatusConflict, "already_submitted"},
	{domain.ErrAlreadyMember, http.StatusConflict, "already_member"},
	{domain.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domain.ErrInvalidAttempt, http.StatusBadRequest, "invalid_attempt"},
	{domain.ErrInvalidWindow, http.StatusBadRequest, "invalid_window"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", "request failed")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
