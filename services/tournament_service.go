package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/courtside/pickleball-backend/models"
	"github.com/courtside/pickleball-backend/repositories"
	"github.com/courtside/pickleball-backend/storage"
)

type CreateTournamentInput struct {
	Title        string    `json:"title"`
	Location     *string   `json:"location"`
	StartDate    time.Time `json:"start_date"`
	ScheduleText *string   `json:"schedule_text"`
	FormatText   *string   `json:"format_text"`
	SkillCap     *float64  `json:"skill_cap"`
	EntryFee     *string   `json:"entry_fee"`
	SubmitToDupr bool      `json:"submit_to_dupr"`

	Settings *models.TournamentSettings `json:"settings"`
}

type UpdateTournamentInput struct {
	Title        *string    `json:"title"`
	Location     *string    `json:"location"`
	StartDate    *time.Time `json:"start_date"`
	ScheduleText *string    `json:"schedule_text"`
	FormatText   *string    `json:"format_text"`
	SkillCap     *float64   `json:"skill_cap"`
	EntryFee     *string    `json:"entry_fee"`
	SubmitToDupr *bool      `json:"submit_to_dupr"`

	Settings *models.TournamentSettings `json:"settings"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
	AutoUpdateTournamentStatuses(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	settingsRepo   repositories.SettingsRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	settingsRepo repositories.SettingsRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		settingsRepo:   settingsRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Title:        input.Title,
		Location:     input.Location,
		StartDate:    input.StartDate,
		ScheduleText: input.ScheduleText,
		FormatText:   input.FormatText,
		SkillCap:     input.SkillCap,
		EntryFee:     input.EntryFee,
		SubmitToDupr: input.SubmitToDupr,
		Status:       models.StatusUpcoming,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	if input.Settings != nil {
		input.Settings.TournamentID = tournament.ID
		if err := s.settingsRepo.Upsert(ctx, input.Settings); err != nil {
			return nil, fmt.Errorf("failed to save tournament settings: %w", err)
		}
		tournament.Settings = input.Settings
	}

	return tournament, nil
}

// GetByID returns the tournament with settings, teams, and the public logo
// URL populated.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	settings, err := s.settingsRepo.GetByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament settings: %w", err)
	}
	tournament.Settings = settings

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament teams: %w", err)
	}
	tournament.Teams = teams

	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidationFailed)
		}
		tournament.Title = *input.Title
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.ScheduleText != nil {
		tournament.ScheduleText = input.ScheduleText
	}
	if input.FormatText != nil {
		tournament.FormatText = input.FormatText
	}
	if input.SkillCap != nil {
		tournament.SkillCap = input.SkillCap
	}
	if input.EntryFee != nil {
		tournament.EntryFee = input.EntryFee
	}
	if input.SubmitToDupr != nil {
		tournament.SubmitToDupr = *input.SubmitToDupr
	}

	if err := s.tournamentRepo.UpdateDetails(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}

	if input.Settings != nil {
		input.Settings.TournamentID = id
		if err := s.settingsRepo.Upsert(ctx, input.Settings); err != nil {
			return nil, fmt.Errorf("failed to save tournament settings: %w", err)
		}
		tournament.Settings = input.Settings
	}

	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if tournament.LogoKey != nil {
		if err := s.uploader.Delete(ctx, *tournament.LogoKey); err != nil {
			s.logger.Warn("failed to delete tournament logo from storage",
				"tournament_id", id, "key", *tournament.LogoKey, "error", err)
		}
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo-%d", id, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	oldKey := tournament.LogoKey
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save logo key: %w", err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous logo",
				"tournament_id", id, "key", *oldKey, "error", err)
		}
	}

	tournament.LogoKey = &result.Key
	s.populateLogoURL(tournament)
	return tournament, nil
}

// AutoUpdateTournamentStatuses flips upcoming tournaments whose start date
// has passed to live. Completion is never automatic; archiving requires the
// bracket to be resolved.
func (s *tournamentService) AutoUpdateTournamentStatuses(ctx context.Context) error {
	tournaments, err := s.tournamentRepo.ListByStatus(ctx, models.StatusUpcoming)
	if err != nil {
		return fmt.Errorf("failed to list upcoming tournaments: %w", err)
	}

	now := time.Now()
	for _, t := range tournaments {
		if t.StartDate.After(now) {
			continue
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.StatusLive); err != nil {
			s.logger.Error("failed to flip tournament to live",
				"tournament_id", t.ID, "error", err)
			continue
		}
		s.logger.Info("tournament is now live", "tournament_id", t.ID, "title", t.Title)
	}
	return nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t.LogoKey != nil && *t.LogoKey != "" {
		url := s.uploader.GetPublicURL(*t.LogoKey)
		t.LogoURL = &url
	}
}
