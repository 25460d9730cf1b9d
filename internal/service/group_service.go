package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ykarpov/chorebank/internal/auth"
	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/sprint"
	"github.com/ykarpov/chorebank/internal/storage"
	"github.com/ykarpov/chorebank/internal/tokens"
)

// GroupService manages group lifecycle and settings.
type GroupService struct {
	store   storage.Store
	invites *auth.InviteManager
	codes   tokens.Store
	logger  *slog.Logger
}

// NewGroupService creates a group service over the given collaborators.
func NewGroupService(store storage.Store, invites *auth.InviteManager, codes tokens.Store, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, invites: invites, codes: codes, logger: logger}
}

// CreateGroup creates a group with the caller as owner carrying the full
// load share. durationDays must be a positive multiple of 7; settlement
// itself tolerates any positive value, this check runs only here.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID int64, ownerName, name, secret, startDay string, durationDays int) (*models.Group, error) {
	if !sprint.KnownWeekday(startDay) {
		return nil, ErrBadStartDay
	}
	if durationDays <= 0 || durationDays%7 != 0 {
		return nil, ErrBadDuration
	}

	if user, err := s.store.GetUser(ctx, ownerID); err == nil && user.GroupID != "" {
		return nil, ErrAlreadyInGroup
	}
	if _, err := s.store.GetGroupByName(ctx, name); err == nil {
		return nil, ErrNameTaken
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:           name,
		SecretHash:     hash,
		StartDay:       startDay,
		SprintDuration: durationDays,
		OwnerID:        ownerID,
		Weights:        models.Weights{ownerID: 100},
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	if err := s.enroll(ctx, ownerID, ownerName, group.ID); err != nil {
		return nil, err
	}

	s.logger.Info("group created", "group_id", group.ID, "name", name, "owner_id", ownerID)
	return group, nil
}

// JoinByName adds the user to the group after checking the join secret.
// New members start with weight 0 until the owner rebalances the map.
func (s *GroupService) JoinByName(ctx context.Context, userID int64, firstName, groupName, secret string) (*models.Group, error) {
	if user, err := s.store.GetUser(ctx, userID); err == nil && user.GroupID != "" {
		return nil, ErrAlreadyInGroup
	}

	group, err := s.store.GetGroupByName(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckSecret(group.SecretHash, secret); err != nil {
		return nil, err
	}

	if err := s.enroll(ctx, userID, firstName, group.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user joined group", "group_id", group.ID, "user_id", userID)
	return group, nil
}

// GenerateInvite issues a signed invite link token for the caller's group.
func (s *GroupService) GenerateInvite(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil || user.GroupID == "" {
		return "", ErrNotInGroup
	}
	return s.invites.Generate(user.GroupID)
}

// JoinByInvite adds the user to the group named by a valid invite token,
// bypassing the join secret.
func (s *GroupService) JoinByInvite(ctx context.Context, userID int64, firstName, token string) (*models.Group, error) {
	if user, err := s.store.GetUser(ctx, userID); err == nil && user.GroupID != "" {
		return nil, ErrAlreadyInGroup
	}

	groupID, err := s.invites.Validate(token)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.enroll(ctx, userID, firstName, group.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user joined group by invite", "group_id", group.ID, "user_id", userID)
	return group, nil
}

func (s *GroupService) enroll(ctx context.Context, userID int64, firstName, groupID string) error {
	if err := s.store.UpsertUser(ctx, &models.User{ID: userID, FirstName: firstName}); err != nil {
		return err
	}
	if err := s.store.SetUserGroup(ctx, userID, groupID); err != nil {
		return err
	}
	return s.store.EnsureBalance(ctx, userID, groupID)
}

// RequestLeave issues a single-use confirmation code for leaving the
// caller's group. A repeated request overwrites the previous code.
func (s *GroupService) RequestLeave(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil || user.GroupID == "" {
		return "", ErrNotInGroup
	}

	code, err := tokens.NewCode()
	if err != nil {
		return "", err
	}
	if err := s.codes.Issue(ctx, userID, tokens.PurposeLeaveGroup, code); err != nil {
		return "", fmt.Errorf("issue confirmation code: %w", err)
	}
	return code, nil
}

// ConfirmLeave removes the caller from their group once the code matches.
// An owner's departure reassigns ownership to another member; the last
// member's departure retires the group's tasks. The leaver's weight entry is
// dropped, leaving the map short of 100 until the owner rebalances.
func (s *GroupService) ConfirmLeave(ctx context.Context, userID int64, code string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil || user.GroupID == "" {
		return ErrNotInGroup
	}

	ok, err := s.codes.Redeem(ctx, userID, tokens.PurposeLeaveGroup, code)
	if err != nil {
		return fmt.Errorf("redeem confirmation code: %w", err)
	}
	if !ok {
		return ErrBadCode
	}

	group, err := s.store.GetGroup(ctx, user.GroupID)
	if err != nil {
		return err
	}

	if err := s.store.SetUserGroup(ctx, userID, ""); err != nil {
		return err
	}

	remaining, err := s.store.ListGroupUsers(ctx, group.ID)
	if err != nil {
		return err
	}

	delete(group.Weights, userID)

	if len(remaining) == 0 {
		if err := s.store.DeactivateGroupTasks(ctx, group.ID); err != nil {
			return err
		}
		s.logger.Info("last member left, group retired", "group_id", group.ID)
	} else if group.OwnerID == userID {
		group.OwnerID = remaining[0].ID
		s.logger.Info("group owner reassigned",
			"group_id", group.ID, "new_owner_id", group.OwnerID)
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return err
	}

	s.logger.Info("user left group", "group_id", group.ID, "user_id", userID)
	return nil
}

// SetWeights replaces the group's load-share map. Owner only; the
// sum-to-100 invariant is checked against current members on every call.
func (s *GroupService) SetWeights(ctx context.Context, requesterID int64, weights models.Weights) error {
	group, err := s.ownedGroup(ctx, requesterID)
	if err != nil {
		return err
	}

	members, err := s.store.ListGroupUsers(ctx, group.ID)
	if err != nil {
		return err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	if err := weights.Validate(ids); err != nil {
		return err
	}

	group.Weights = weights
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return err
	}

	s.logger.Info("group weights updated", "group_id", group.ID)
	return nil
}

// SetStartDay changes the sprint anchor weekday. Changing it retroactively
// reshapes the current window, since boundaries are recomputed from "now".
func (s *GroupService) SetStartDay(ctx context.Context, requesterID int64, startDay string) error {
	if !sprint.KnownWeekday(startDay) {
		return ErrBadStartDay
	}
	group, err := s.ownedGroup(ctx, requesterID)
	if err != nil {
		return err
	}
	group.StartDay = startDay
	return s.store.UpdateGroup(ctx, group)
}

// SetSprintDuration changes the sprint length in days.
func (s *GroupService) SetSprintDuration(ctx context.Context, requesterID int64, durationDays int) error {
	if durationDays <= 0 || durationDays%7 != 0 {
		return ErrBadDuration
	}
	group, err := s.ownedGroup(ctx, requesterID)
	if err != nil {
		return err
	}
	group.SprintDuration = durationDays
	return s.store.UpdateGroup(ctx, group)
}

// SetJoinSecret replaces the group's join secret.
func (s *GroupService) SetJoinSecret(ctx context.Context, requesterID int64, secret string) error {
	group, err := s.ownedGroup(ctx, requesterID)
	if err != nil {
		return err
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}
	group.SecretHash = hash
	return s.store.UpdateGroup(ctx, group)
}

func (s *GroupService) ownedGroup(ctx context.Context, requesterID int64) (*models.Group, error) {
	user, err := s.store.GetUser(ctx, requesterID)
	if err != nil || user.GroupID == "" {
		return nil, ErrNotInGroup
	}
	group, err := s.store.GetGroup(ctx, user.GroupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	return group, nil
}

// MemberReport is one member's interim figures in a group report.
type MemberReport struct {
	UserID     int64   `json:"user_id"`
	FirstName  string  `json:"first_name"`
	Plan       string  `json:"plan"`
	Fact       string  `json:"fact"`
	Efficiency float64 `json:"efficiency"`
}

// Report holds the interim plan/fact figures for a group's current sprint
// window, without settling anything.
type Report struct {
	GroupID     string         `json:"group_id"`
	GroupName   string         `json:"group_name"`
	WindowStart string         `json:"window_start"`
	WindowEnd   string         `json:"window_end"`
	Members     []MemberReport `json:"members"`
}

// CurrentReport aggregates the group's current window on demand. The same
// math the settlement engine runs at the boundary, read-only.
func (s *GroupService) CurrentReport(ctx context.Context, groupID string, now time.Time) (*Report, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	start, err := sprint.StartDate(group.StartDay, now)
	if err != nil {
		return nil, err
	}
	end, err := sprint.EndDate(group.StartDay, group.SprintDuration, now)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.ListActiveTasks(ctx, groupID)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListLogs(ctx, groupID, start, end)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListGroupUsers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	results := sprint.Aggregate(group, tasks, logs, users, start, end)

	report := &Report{
		GroupID:     group.ID,
		GroupName:   group.Name,
		WindowStart: start.Format("2006-01-02"),
		WindowEnd:   end.Format("2006-01-02"),
	}
	for _, u := range users {
		r := results[u.ID]
		report.Members = append(report.Members, MemberReport{
			UserID:     u.ID,
			FirstName:  u.FirstName,
			Plan:       r.Plan.String(),
			Fact:       r.Fact.String(),
			Efficiency: r.Efficiency,
		})
	}
	return report, nil
}

// memberOf loads the user and their group, failing when unaffiliated.
func memberOf(ctx context.Context, store storage.Store, userID int64) (*models.User, *models.Group, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotInGroup
		}
		return nil, nil, err
	}
	if user.GroupID == "" {
		return nil, nil, ErrNotInGroup
	}
	group, err := store.GetGroup(ctx, user.GroupID)
	if err != nil {
		return nil, nil, err
	}
	return user, group, nil
}
