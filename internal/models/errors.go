// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Business error codes returned by the orchestration core. Every mutating
// operation returns one of these on a rule violation; none are retried
// internally because they are not transient.
const (
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyResolved     = "ALREADY_RESOLVED"
	CodeInvalidWinner       = "INVALID_WINNER"
	CodeQueueEmpty          = "QUEUE_EMPTY"
	CodeWinnerAlreadyPicked = "WINNER_ALREADY_PICKED"
	CodeNoEntries           = "NO_ENTRIES"
	CodeNotEnded            = "NOT_ENDED"
	CodeDuplicateEntry      = "DUPLICATE_ENTRY"
	CodeEntryLimitReached   = "ENTRY_LIMIT_REACHED"
	CodeRequirementNotMet   = "REQUIREMENT_NOT_MET"
	CodeEventEnded          = "EVENT_ENDED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing aggregate or row.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewInvalidTransitionError rejects an illegal lifecycle move.
func NewInvalidTransitionError(from, to EventStatus) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition event from %q to %q", from, to),
	}
}

// NewAlreadyResolvedError rejects a second resolution of the same match.
func NewAlreadyResolvedError(matchID uint) *AppError {
	return &AppError{
		Code:    CodeAlreadyResolved,
		Message: fmt.Sprintf("match %d is already resolved", matchID),
	}
}

// NewInvalidWinnerError rejects a winner that is not one of the match players.
func NewInvalidWinnerError(matchID, winnerID uint) *AppError {
	return &AppError{
		Code:    CodeInvalidWinner,
		Message: fmt.Sprintf("entry %d is not a player of match %d", winnerID, matchID),
	}
}

// NewQueueEmptyError reports a bonus-hunt queue with no current entry.
func NewQueueEmptyError(eventID uint) *AppError {
	return &AppError{
		Code:    CodeQueueEmpty,
		Message: fmt.Sprintf("bonus hunt %d has no current entry", eventID),
	}
}

// NewWinnerAlreadyPickedError rejects a second draw for the same giveaway.
func NewWinnerAlreadyPickedError(giveawayID uint) *AppError {
	return &AppError{
		Code:    CodeWinnerAlreadyPicked,
		Message: fmt.Sprintf("giveaway %d already has a winner", giveawayID),
	}
}

// NewNoEntriesError rejects a draw over an empty entry list.
func NewNoEntriesError(giveawayID uint) *AppError {
	return &AppError{
		Code:    CodeNoEntries,
		Message: fmt.Sprintf("giveaway %d has no entries to draw from", giveawayID),
	}
}

// NewNotEndedError rejects a draw before the giveaway end time.
func NewNotEndedError(giveawayID uint) *AppError {
	return &AppError{
		Code:    CodeNotEnded,
		Message: fmt.Sprintf("giveaway %d has not ended yet", giveawayID),
	}
}

// NewDuplicateEntryError rejects a second entry by the same user.
func NewDuplicateEntryError(giveawayID, userID uint) *AppError {
	return &AppError{
		Code:    CodeDuplicateEntry,
		Message: fmt.Sprintf("user %d already entered giveaway %d", userID, giveawayID),
	}
}

// NewEntryLimitReachedError rejects an entry once the entry cap is hit.
func NewEntryLimitReachedError(resource string, id uint, limit int) *AppError {
	return &AppError{
		Code:    CodeEntryLimitReached,
		Message: fmt.Sprintf("%s %d reached its entry limit of %d", resource, id, limit),
	}
}

// NewRequirementNotMetError rejects an entry failing an eligibility gate.
func NewRequirementNotMetError(reqType RequirementType) *AppError {
	return &AppError{
		Code:    CodeRequirementNotMet,
		Message: fmt.Sprintf("requirement %q is not met", reqType),
	}
}

// NewEventEndedError rejects an entry into an inactive or ended giveaway.
func NewEventEndedError(giveawayID uint) *AppError {
	return &AppError{
		Code:    CodeEventEnded,
		Message: fmt.Sprintf("giveaway %d is no longer open for entries", giveawayID),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
