package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates no attempt is stored under the given id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrDuplicateQuestion indicates a question id is already used in the quiz.
	ErrDuplicateQuestion = errors.New("duplicate question id")
	// ErrQuizNotEditable is returned when mutating a quiz that is not a draft.
	ErrQuizNotEditable = errors.New("quiz is not editable")
	// ErrQuizNotPublished is returned when starting a session on an unpublished quiz.
	ErrQuizNotPublished = errors.New("quiz is not published")
	// ErrInvalidTransition signals a lifecycle change the current status does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSessionClosed is returned for session actions after it left the in-progress state.
	ErrSessionClosed = errors.New("quiz session is not in progress")
	// ErrUnknownQuestionType indicates an unrecognised question variant tag.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrMaxAttemptsReached is returned when a user has used up the quiz's attempts.
	ErrMaxAttemptsReached = errors.New("maximum attempts reached")
	// ErrRetakeNotAllowed is returned when the quiz forbids a second attempt.
	ErrRetakeNotAllowed = errors.New("quiz does not allow retakes")
	// ErrNotPendingReview is returned when grading a result that was auto-scored.
	ErrNotPendingReview = errors.New("result is not pending review")
	// ErrInvalidGrade indicates a manual score outside the question's point range.
	ErrInvalidGrade = errors.New("invalid manual grade")
	// ErrMissingAnswerKeys is returned when importing a document exported without answer keys.
	ErrMissingAnswerKeys = errors.New("quiz document has no answer keys")
)
