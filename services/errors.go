package services

import (
	"errors"
	"fmt"
	"time"
)

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business-rule errors
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrTeamSizeInvalid     = errors.New("a team must have one or two members")
	ErrUserAlreadyInTeam   = errors.New("user is already on a team in this tournament")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament registration is full")
	ErrMemberNotLinked     = errors.New("member has no linked rating provider account")
	ErrDuprTierNotMet      = errors.New("member rating is below the required tier")

	// Conflict errors
	ErrUserEmailConflict = errors.New("email address is already in use")
	ErrTeamNameConflict  = errors.New("team name is already in use")

	// Authentication and authorization errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity-specific not-found errors
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayoffNotFound    = errors.New("playoff has not started")

	// Phase transition errors
	ErrWrongPhase          = errors.New("operation not allowed in the current phase")
	ErrNotEnoughTeams      = errors.New("not enough complete teams to start")
	ErrPlayoffNotComplete  = errors.New("playoff bracket is not complete")
	ErrInvalidPlayoffCount = errors.New("invalid playoff team count")
	ErrSlotNotInBracket    = errors.New("score slot does not exist in the bracket")
	ErrGameNotAllowed      = errors.New("only the first game is allowed for this match")
	ErrGameScoreIncomplete = errors.New("a game needs both scores or neither")
	ErrGameOrderInvalid    = errors.New("game three requires game two")
	ErrScoreNegative       = errors.New("scores must not be negative")

	// Rating submission errors
	ErrSubmissionNotEnabled = errors.New("tournament is not flagged for rating submission")
	ErrSubmitterNotLinked   = errors.New("submitter has no linked rating provider account")
	ErrSubmitterNotDirector = errors.New("submitter is not a director or organizer of the configured club")
	ErrNoSubmittableMatches = errors.New("no submittable matches found")
)

// ConflictError reports an optimistic-version mismatch. Current carries the
// stored row so the client can rebase without a second read.
type ConflictError struct {
	Current any
}

func (e *ConflictError) Error() string {
	return "score was modified concurrently"
}

// AlreadySubmittedError gates resubmission to the rating provider. The
// timestamp of the prior successful submission lets the caller decide whether
// forcing is appropriate.
type AlreadySubmittedError struct {
	SubmittedAt time.Time
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("matches already submitted at %s; use force to resubmit", e.SubmittedAt.Format(time.RFC3339))
}
