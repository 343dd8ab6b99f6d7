package models

import "time"

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
	StatusArchived  TournamentStatus = "archived"
)

// Tournament carries the display metadata of an event. Everything except
// Status and SubmitToDupr is descriptive only; the lifecycle itself lives in
// TournamentState.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Title        string           `json:"title" db:"title"`
	Location     *string          `json:"location,omitempty" db:"location"`
	StartDate    time.Time        `json:"start_date" db:"start_date"`
	ScheduleText *string          `json:"schedule_text,omitempty" db:"schedule_text"`
	FormatText   *string          `json:"format_text,omitempty" db:"format_text"`
	SkillCap     *float64         `json:"skill_cap,omitempty" db:"skill_cap"`
	EntryFee     *string          `json:"entry_fee,omitempty" db:"entry_fee"`
	SubmitToDupr bool             `json:"submit_to_dupr" db:"submit_to_dupr"`
	Status       TournamentStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	LogoKey      *string          `json:"-" db:"logo_key"`
	LogoURL      *string          `json:"logo_url,omitempty" db:"-"`

	// Optional related entities, populated by the service layer.
	Settings *TournamentSettings `json:"settings,omitempty" db:"-"`
	Teams    []Team              `json:"teams,omitempty" db:"-"`
}
