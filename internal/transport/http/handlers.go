package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/mux"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := h.svc.Users.Register(r.Context(), app.Registration{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: &user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	user, err := h.svc.Users.Profile(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Users.SetStatus(r.Context(), actor, mux.Vars(r)["id"], req.Status); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req classRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	class, err := h.svc.Classes.Create(r.Context(), actor, app.ClassInput{
		Topic:       req.Topic,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	classes, err := h.svc.Classes.ListForUser(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (h *Handler) JoinClass(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	class, err := h.svc.Classes.Join(r.Context(), actor, req.JoinCode)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (h *Handler) GetClass(w http.ResponseWriter, r *http.Request) {
	class, err := h.svc.Classes.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (h *Handler) ListClassQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.svc.Quizzes.ListByClass(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req quizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quiz, err := h.svc.Quizzes.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.svc.Quizzes.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req quizPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quiz, err := h.svc.Quizzes.Update(r.Context(), mux.Vars(r)["id"], actor, req.patch())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	if err := h.svc.Quizzes.Delete(r.Context(), mux.Vars(r)["id"], actor); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAttempt records the caller's attempt; score and timeTaken are required.
func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Score == nil || req.TimeTaken == nil {
		writeServiceError(w, h.logger, domain.ErrInvalidAttempt)
		return
	}
	rank, err := h.svc.Leaderboards.SubmitAttempt(r.Context(), app.Submission{
		QuizID:    mux.Vars(r)["id"],
		StudentID: actor.ID,
		Score:     *req.Score,
		TimeTaken: *req.TimeTaken,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Rank: rank})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.svc.Leaderboards.Leaderboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	notifications, err := h.svc.Notifications.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	notification, err := h.svc.Notifications.MarkRead(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	n, err := h.svc.Notifications.MarkAllRead(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, markAllReadResponse{Updated: n})
}
