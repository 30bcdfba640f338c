package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrClassNotFound indicates the class does not exist.
	ErrClassNotFound = errors.New("class not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotificationNotFound indicates the notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInvalidJoinCode is returned when no class carries the given join code.
	ErrInvalidJoinCode = errors.New("invalid join code")

	// ErrQuizNotActive is returned for submissions outside the quiz window.
	ErrQuizNotActive = errors.New("quiz is not active")

	// ErrNotEnrolled is returned when the submitter is not a student of the quiz's class.
	ErrNotEnrolled = errors.New("not enrolled in this class")
	// ErrForbidden is returned when the actor lacks the role or ownership for an action.
	ErrForbidden = errors.New("forbidden")
	// ErrUserSuspended blocks authenticated requests from suspended accounts.
	ErrUserSuspended = errors.New("user is suspended")

	// ErrAlreadySubmitted is returned for a second attempt by the same student.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrAlreadyMember is returned when joining a class twice.
	ErrAlreadyMember = errors.New("already a member of this class")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrJoinCodeTaken is returned by stores when a generated join code collides.
	ErrJoinCodeTaken = errors.New("join code already in use")
	// ErrVersionConflict is returned by stores when a quiz changed since it was read.
	ErrVersionConflict = errors.New("quiz version conflict")

	// ErrInvalidAttempt rejects negative scores or durations.
	ErrInvalidAttempt = errors.New("invalid attempt")
	// ErrInvalidWindow rejects quizzes that close before they open.
	ErrInvalidWindow = errors.New("quiz closes before it opens")
	// ErrInvalidInput covers missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRetriesExhausted is returned when concurrent writers kept winning the version race.
	ErrRetriesExhausted = errors.New("too many concurrent updates")
)
