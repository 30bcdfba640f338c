package http

import (
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

type registerRequest struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        domain.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

type statusRequest struct {
	Status domain.UserStatus `json:"status"`
}

type classRequest struct {
	Topic       string `json:"topic"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinRequest struct {
	JoinCode string `json:"joinCode"`
}

type quizRequest struct {
	ClassID         string    `json:"classId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Questions       []string  `json:"questions"`
	TestDate        time.Time `json:"testDate"`
	DurationMinutes int       `json:"durationMinutes"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
}

func (r quizRequest) input() app.QuizInput {
	return app.QuizInput{
		ClassID:         r.ClassID,
		Name:            r.Name,
		Description:     r.Description,
		QuestionIDs:     r.Questions,
		TestDate:        r.TestDate,
		DurationMinutes: r.DurationMinutes,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
	}
}

type quizPatchRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	Questions       *[]string  `json:"questions"`
	TestDate        *time.Time `json:"testDate"`
	DurationMinutes *int       `json:"durationMinutes"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
}

func (r quizPatchRequest) patch() app.QuizPatch {
	return app.QuizPatch{
		Name:            r.Name,
		Description:     r.Description,
		QuestionIDs:     r.Questions,
		TestDate:        r.TestDate,
		DurationMinutes: r.DurationMinutes,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
	}
}

type submitRequest struct {
	Score     *float64 `json:"score"`
	TimeTaken *int64   `json:"timeTaken"`
}

type submitResponse struct {
	Rank int `json:"rank"`
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}
