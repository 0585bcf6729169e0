package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/standup-bot/internal/permission"
	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/summary"
)

// Summarizer generates a standup digest. Failures are tolerated.
type Summarizer interface {
	Generate(ctx context.Context, in summary.Input) (string, error)
}

// StandupService records daily standups and reports team progress.
type StandupService struct {
	store       persistence.Store
	summarizer  Summarizer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStandupService constructs a standup service with the default logger.
func NewStandupService(store persistence.Store, summarizer Summarizer, idGenerator func() string, now func() time.Time) *StandupService {
	return NewStandupServiceWithLogger(store, summarizer, idGenerator, now, nil)
}

// NewStandupServiceWithLogger constructs a standup service with a specified logger.
func NewStandupServiceWithLogger(store persistence.Store, summarizer Summarizer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StandupService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &StandupService{store: store, summarizer: summarizer, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *StandupService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StandupService", operation, attrs...)
}

// Today returns the current standup date.
func (s *StandupService) Today() string {
	return s.now().UTC().Format(persistence.StandupDateLayout)
}

// HasSubmitted reports whether identity already has a standup on date.
func (s *StandupService) HasSubmitted(ctx context.Context, identity, date string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("StandupService is nil")
	}
	_, err := s.store.Standups().GetStandupForDate(ctx, identity, date)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, persistence.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// SubmitStandup stores the standup of params.Identity for params.Date.
//
// A second submission for the same user and date fails with
// ErrAlreadySubmitted and leaves the first untouched. The summary is
// requested before anything is written; when it is unavailable the standup
// is stored without one and the result carries the fallback text.
func (s *StandupService) SubmitStandup(ctx context.Context, params SubmitStandupParams) (result StandupResult, err error) {
	if s == nil {
		return StandupResult{}, fmt.Errorf("StandupService is nil")
	}
	if params.Date == "" {
		params.Date = s.Today()
	}
	logger := s.loggerWith(ctx, "SubmitStandup", "identity", params.Identity, "date", params.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit standup", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("standup_id", result.Standup.ID, "summary_generated", result.Generated).InfoContext(ctx, "standup submitted")
	}()

	if _, err := time.Parse(persistence.StandupDateLayout, params.Date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "Standup date must look like 2006-01-02")
		return StandupResult{}, vErr
	}

	user, err := s.store.Users().GetUser(ctx, params.Identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return StandupResult{}, ErrNotRegistered
	}
	if err != nil {
		return StandupResult{}, err
	}
	if !permission.CanSubmitStandup(permission.ActorFromUser(user)) {
		return StandupResult{}, ErrNoTeam
	}
	if done, err := s.HasSubmitted(ctx, params.Identity, params.Date); err != nil {
		return StandupResult{}, err
	} else if done {
		return StandupResult{}, ErrAlreadySubmitted
	}

	input := summary.Input{
		Yesterday: strings.TrimSpace(params.Yesterday),
		Today:     strings.TrimSpace(params.Today),
		Blockers:  strings.TrimSpace(params.Blockers),
		Commits:   params.Commits,
		Issues:    params.Issues,
	}
	result.Summary, result.Generated = s.summarize(ctx, logger, input)

	now := s.now().UTC()
	standup := persistence.Standup{
		ID:           s.idGenerator(),
		UserIdentity: user.Identity,
		TeamID:       user.TeamID,
		Date:         params.Date,
		Yesterday:    input.Yesterday,
		Today:        input.Today,
		Blockers:     input.Blockers,
		Status:       persistence.StandupInProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithinTx(ctx, func(repos persistence.Repositories) error {
		if _, err := repos.Standups().GetStandupForDate(ctx, user.Identity, params.Date); err == nil {
			return ErrAlreadySubmitted
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
		if err := repos.Standups().CreateStandup(ctx, standup); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return ErrAlreadySubmitted
			}
			return err
		}
		standup.Status = persistence.StandupCompleted
		if result.Generated {
			standup.Summary = result.Summary
		}
		return repos.Standups().UpdateStandup(ctx, standup)
	})
	if err != nil {
		return StandupResult{}, err
	}
	result.Standup = standup
	return result, nil
}

func (s *StandupService) summarize(ctx context.Context, logger *slog.Logger, in summary.Input) (string, bool) {
	if s.summarizer == nil {
		return summary.Fallback(in), false
	}
	text, err := s.summarizer.Generate(ctx, in)
	if err != nil {
		if !errors.Is(err, summary.ErrDisabled) {
			logger.WarnContext(ctx, "summary unavailable, using fallback", "error", err)
		}
		return summary.Fallback(in), false
	}
	return text, true
}

// TeamStatus lists who in the caller's team submitted on date.
func (s *StandupService) TeamStatus(ctx context.Context, identity, date string) (status TeamStatus, err error) {
	if s == nil {
		return TeamStatus{}, fmt.Errorf("StandupService is nil")
	}
	logger := s.loggerWith(ctx, "TeamStatus", "identity", identity, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load team status", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	user, err := s.store.Users().GetUser(ctx, identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return TeamStatus{}, ErrNotRegistered
	}
	if err != nil {
		return TeamStatus{}, err
	}
	if !user.HasTeam() {
		return TeamStatus{}, ErrNoTeam
	}
	team, err := s.store.Teams().GetTeam(ctx, user.TeamID)
	if err != nil {
		return TeamStatus{}, err
	}
	if !permission.CanViewTeam(permission.ActorFromUser(user), permission.ScopeOf(team)) {
		return TeamStatus{}, domainError(ErrUnauthorized, "You don't have permission to view this team")
	}

	members, submitted, err := s.teamProgress(ctx, team.ID, date)
	if err != nil {
		return TeamStatus{}, err
	}
	status = TeamStatus{Team: team, Date: date}
	for _, member := range members {
		status.Members = append(status.Members, MemberStatus{User: member, Submitted: submitted[member.Identity]})
	}
	return status, nil
}

// OrganizationStatus counts submissions per team across the caller's organization.
func (s *StandupService) OrganizationStatus(ctx context.Context, identity, date string) (status OrganizationStatus, err error) {
	if s == nil {
		return OrganizationStatus{}, fmt.Errorf("StandupService is nil")
	}
	logger := s.loggerWith(ctx, "OrganizationStatus", "identity", identity, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load organization status", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	user, err := s.store.Users().GetUser(ctx, identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return OrganizationStatus{}, ErrNotRegistered
	}
	if err != nil {
		return OrganizationStatus{}, err
	}
	if !permission.CanViewOrgDashboard(permission.ActorFromUser(user), user.OrganizationID) {
		return OrganizationStatus{}, domainError(ErrUnauthorized, "Only organization admins can view the organization dashboard")
	}
	org, err := s.store.Organizations().GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		return OrganizationStatus{}, err
	}
	teams, err := s.store.Teams().ListTeams(ctx, org.ID)
	if err != nil {
		return OrganizationStatus{}, err
	}

	status = OrganizationStatus{Organization: org, Date: date}
	for _, team := range teams {
		members, submitted, err := s.teamProgress(ctx, team.ID, date)
		if err != nil {
			return OrganizationStatus{}, err
		}
		progress := TeamProgress{Team: team, Members: len(members)}
		for _, member := range members {
			if submitted[member.Identity] {
				progress.Submitted++
			}
		}
		status.Teams = append(status.Teams, progress)
	}
	return status, nil
}

func (s *StandupService) teamProgress(ctx context.Context, teamID, date string) ([]persistence.User, map[string]bool, error) {
	members, err := s.store.Users().ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	standups, err := s.store.Standups().ListTeamStandups(ctx, teamID, date)
	if err != nil {
		return nil, nil, err
	}
	submitted := make(map[string]bool, len(standups))
	for _, standup := range standups {
		if standup.Status == persistence.StandupCompleted {
			submitted[standup.UserIdentity] = true
		}
	}
	return members, submitted, nil
}
