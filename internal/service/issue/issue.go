package issue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type IssueRepository interface {
	Create(ctx context.Context, issue domain.Issue) (*domain.Issue, error)
	GetByID(ctx context.Context, issueID int64) (*domain.Issue, error)
	Update(ctx context.Context, issue domain.Issue) error
	SoftDelete(ctx context.Context, issueID int64) error
	CountByStatus(ctx context.Context, statusID, excludeIssueID int64) (int, error)
	NextPosition(ctx context.Context, statusID int64) (int, error)
	CloseGap(ctx context.Context, statusID int64, vacatedPosition int) error
	OpenSlot(ctx context.Context, statusID int64, position int) error
	SetStatusAndPosition(ctx context.Context, issueID, statusID int64, position int) error
	ListByStatus(ctx context.Context, statusID int64) ([]domain.Issue, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Issue, error)
}

type StatusRepository interface {
	GetByID(ctx context.Context, statusID int64) (*domain.IssueStatus, error)
	GetForUpdate(ctx context.Context, statusID int64) (*domain.IssueStatus, error)
}

type LabelRepository interface {
	Create(ctx context.Context, projectID int64, name, color string) (*domain.Label, error)
	GetByID(ctx context.Context, labelID int64) (*domain.Label, error)
	Update(ctx context.Context, labelID int64, name, color string) error
	Delete(ctx context.Context, labelID int64) error
	CountByProject(ctx context.Context, projectID int64) (int, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Label, error)
	CountInProject(ctx context.Context, projectID int64, ids []int64) (int, error)
	ListByIssue(ctx context.Context, issueID int64) ([]domain.Label, error)
	LabelIDsByIssue(ctx context.Context, issueID int64) ([]int64, error)
	Attach(ctx context.Context, issueID, labelID int64) error
	Detach(ctx context.Context, issueID, labelID int64) error
	CountByIssue(ctx context.Context, issueID int64) (int, error)
}

type SubtaskRepository interface {
	ListByIssue(ctx context.Context, issueID int64) ([]domain.Subtask, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, h domain.IssueHistory) error
	ListByIssue(ctx context.Context, issueID int64, limit int) ([]domain.IssueHistory, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, teamID, userID int64) (bool, error)
}

type IssueService struct {
	issueRepo        IssueRepository
	statusRepo       StatusRepository
	labelRepo        LabelRepository
	subtaskRepo      SubtaskRepository
	historyRepo      HistoryRepository
	projectRepo      ProjectRepository
	notificationRepo NotificationRepository
	access           AccessResolver
	txManager        database.TransactionManagerInterface
	lg               *slog.Logger
}

func NewIssueService(issueRepo IssueRepository,
	statusRepo StatusRepository,
	labelRepo LabelRepository,
	subtaskRepo SubtaskRepository,
	historyRepo HistoryRepository,
	projectRepo ProjectRepository,
	notificationRepo NotificationRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *IssueService {
	return &IssueService{
		issueRepo:        issueRepo,
		statusRepo:       statusRepo,
		labelRepo:        labelRepo,
		subtaskRepo:      subtaskRepo,
		historyRepo:      historyRepo,
		projectRepo:      projectRepo,
		notificationRepo: notificationRepo,
		access:           access,
		txManager:        txManager,
		lg:               lg,
	}
}

// notifyAssigned tells the new assignee about the issue, unless they
// assigned it to themselves.
func (s *IssueService) notifyAssigned(ctx context.Context, issue *domain.Issue, actorID int64) error {
	if issue.AssigneeID == nil || *issue.AssigneeID == actorID {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"issue_id":    issue.ID,
		"issue_title": issue.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to encode issue payload: %w", err)
	}
	_, err = s.notificationRepo.Create(ctx, domain.Notification{
		UserID:  *issue.AssigneeID,
		Type:    domain.NotificationIssueAssigned,
		Title:   fmt.Sprintf("You have been assigned to issue: %s", issue.Title),
		Message: fmt.Sprintf("Issue '%s' has been assigned to you", issue.Title),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateIssue places a new issue into the requested column. The WIP
// limit is checked under a row lock on the column, so concurrent
// creates cannot jointly overshoot it.
func (s *IssueService) CreateIssue(ctx context.Context, projectID, userID int64, req domain.CreateIssueRequest) (*domain.Issue, error) {
	if req.Title == "" {
		return nil, domain.ErrInvalidInput
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	if len(req.LabelIDs) > domain.MaxLabelsPerIssue {
		return nil, domain.ErrIssueLabelLimit
	}

	var issue *domain.Issue
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		project, err := s.checkProjectAccess(txCtx, projectID, userID, true)
		if err != nil {
			return err
		}

		status, err := s.statusRepo.GetForUpdate(txCtx, req.StatusID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrStatusNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		if status.ProjectID != projectID {
			return domain.ErrStatusNotInProject
		}

		count, err := s.issueRepo.CountByStatus(txCtx, status.ID, 0)
		if err != nil {
			return fmt.Errorf("failed to count issues: %w", err)
		}
		if status.WipLimit != nil && count+1 > *status.WipLimit {
			return domain.ErrWIPLimitExceeded
		}

		if req.AssigneeID != nil {
			if err := s.checkAssignee(txCtx, project.TeamID, *req.AssigneeID); err != nil {
				return err
			}
		}

		if len(req.LabelIDs) > 0 {
			inProject, err := s.labelRepo.CountInProject(txCtx, projectID, req.LabelIDs)
			if err != nil {
				return fmt.Errorf("failed to check labels: %w", err)
			}
			if inProject != len(req.LabelIDs) {
				return domain.ErrLabelNotInProject
			}
		}

		position := count
		if req.Position != nil {
			position = clamp(*req.Position, 0, count)
		}
		if position < count {
			if err := s.issueRepo.OpenSlot(txCtx, status.ID, position); err != nil {
				return fmt.Errorf("failed to open slot: %w", err)
			}
		}

		issue, err = s.issueRepo.Create(txCtx, domain.Issue{
			ProjectID:   projectID,
			StatusID:    status.ID,
			Title:       req.Title,
			Description: req.Description,
			OwnerID:     userID,
			AssigneeID:  req.AssigneeID,
			DueDate:     req.DueDate,
			Priority:    priority,
			Position:    position,
		})
		if err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}

		if err := s.historyRepo.Append(txCtx, domain.IssueHistory{
			IssueID: issue.ID,
			ActorID: userID,
			Field:   "created",
		}); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		if err := s.notifyAssigned(txCtx, issue, userID); err != nil {
			return err
		}

		for _, labelID := range req.LabelIDs {
			if err := s.labelRepo.Attach(txCtx, issue.ID, labelID); err != nil {
				return fmt.Errorf("failed to attach label: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("issue created", slog.Int64("issue_id", issue.ID), slog.Int64("project_id", projectID))
	return issue, nil
}

func (s *IssueService) GetIssue(ctx context.Context, issueID, userID int64) (*domain.IssueDetail, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	if _, err := s.checkProjectAccess(ctx, issue.ProjectID, userID, false); err != nil {
		return nil, err
	}

	labels, err := s.labelRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	subtasks, err := s.subtaskRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}

	return &domain.IssueDetail{Issue: *issue, Labels: labels, Subtasks: subtasks}, nil
}

// UpdateIssue applies the non-nil fields and records one history row
// per changed field. A non-nil LabelIDs replaces the whole label set.
func (s *IssueService) UpdateIssue(ctx context.Context, issueID, userID int64, req domain.UpdateIssueRequest) (*domain.Issue, error) {
	if req.Title != nil && *req.Title == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	if req.LabelIDs != nil && len(req.LabelIDs) > domain.MaxLabelsPerIssue {
		return nil, domain.ErrIssueLabelLimit
	}

	var issue *domain.Issue
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		issue, err = s.issueRepo.GetByID(txCtx, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get issue: %w", err)
		}

		project, err := s.checkProjectAccess(txCtx, issue.ProjectID, userID, true)
		if err != nil {
			return err
		}

		var changes []domain.IssueHistory
		record := func(field string, oldV, newV *string) {
			changes = append(changes, domain.IssueHistory{
				IssueID:  issueID,
				ActorID:  userID,
				Field:    field,
				OldValue: oldV,
				NewValue: newV,
			})
		}

		if req.Title != nil && *req.Title != issue.Title {
			record("title", strPtr(issue.Title), req.Title)
			issue.Title = *req.Title
		}
		if req.Description != nil && *req.Description != issue.Description {
			record("description", strPtr(issue.Description), req.Description)
			issue.Description = *req.Description
		}
		if req.Priority != nil && *req.Priority != issue.Priority {
			record("priority", strPtr(string(issue.Priority)), strPtr(string(*req.Priority)))
			issue.Priority = *req.Priority
		}
		assigneeChanged := false
		if req.AssigneeID != nil && (issue.AssigneeID == nil || *issue.AssigneeID != *req.AssigneeID) {
			if err := s.checkAssignee(txCtx, project.TeamID, *req.AssigneeID); err != nil {
				return err
			}
			record("assignee", int64PtrStr(issue.AssigneeID), int64PtrStr(req.AssigneeID))
			issue.AssigneeID = req.AssigneeID
			assigneeChanged = true
		}
		if req.DueDate != nil && (issue.DueDate == nil || !issue.DueDate.Equal(*req.DueDate)) {
			record("due_date", timePtrStr(issue.DueDate), timePtrStr(req.DueDate))
			issue.DueDate = req.DueDate
		}

		if len(changes) > 0 {
			if err := s.issueRepo.Update(txCtx, *issue); err != nil {
				return fmt.Errorf("failed to update issue: %w", err)
			}
		}

		if req.LabelIDs != nil {
			if err := s.replaceLabels(txCtx, issue.ProjectID, issueID, req.LabelIDs); err != nil {
				return err
			}
		}

		for _, h := range changes {
			if err := s.historyRepo.Append(txCtx, h); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}

		if assigneeChanged {
			if err := s.notifyAssigned(txCtx, issue, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("issue updated", slog.Int64("issue_id", issueID))
	return issue, nil
}

// MoveIssue relocates an issue to (statusID, position). Source and
// target columns are locked in id order, the target WIP limit is
// checked excluding the issue itself, then the source gap is closed
// and a target slot opened so both columns stay dense.
func (s *IssueService) MoveIssue(ctx context.Context, issueID, userID int64, req domain.MoveIssueRequest) (*domain.Issue, error) {
	var issue *domain.Issue
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		issue, err = s.issueRepo.GetByID(txCtx, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get issue: %w", err)
		}

		if _, err := s.checkProjectAccess(txCtx, issue.ProjectID, userID, true); err != nil {
			return err
		}

		target, err := s.lockPair(txCtx, issue.StatusID, req.StatusID)
		if err != nil {
			return err
		}
		if target.ProjectID != issue.ProjectID {
			return domain.ErrStatusNotInProject
		}

		inTarget, err := s.issueRepo.CountByStatus(txCtx, target.ID, issueID)
		if err != nil {
			return fmt.Errorf("failed to count issues: %w", err)
		}
		if target.ID != issue.StatusID && target.WipLimit != nil && inTarget+1 > *target.WipLimit {
			return domain.ErrWIPLimitExceeded
		}

		position := clamp(req.Position, 0, inTarget)

		if err := s.issueRepo.CloseGap(txCtx, issue.StatusID, issue.Position); err != nil {
			return fmt.Errorf("failed to close gap: %w", err)
		}
		if err := s.issueRepo.OpenSlot(txCtx, target.ID, position); err != nil {
			return fmt.Errorf("failed to open slot: %w", err)
		}
		if err := s.issueRepo.SetStatusAndPosition(txCtx, issueID, target.ID, position); err != nil {
			return fmt.Errorf("failed to move issue: %w", err)
		}

		if target.ID != issue.StatusID {
			err := s.historyRepo.Append(txCtx, domain.IssueHistory{
				IssueID:  issueID,
				ActorID:  userID,
				Field:    "status",
				OldValue: strPtr(strconv.FormatInt(issue.StatusID, 10)),
				NewValue: strPtr(strconv.FormatInt(target.ID, 10)),
			})
			if err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}

		issue.StatusID = target.ID
		issue.Position = position
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("issue moved",
		slog.Int64("issue_id", issueID),
		slog.Int64("status_id", issue.StatusID),
		slog.Int("position", issue.Position))
	return issue, nil
}

// DeleteIssue soft-deletes; allowed for the issue owner or a team
// ADMIN. The vacated position is closed so the column stays dense.
func (s *IssueService) DeleteIssue(ctx context.Context, issueID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		issue, err := s.issueRepo.GetByID(txCtx, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get issue: %w", err)
		}

		project, err := s.checkProjectAccess(txCtx, issue.ProjectID, userID, true)
		if err != nil {
			return err
		}

		if issue.OwnerID != userID {
			isAdmin, err := s.access.IsAdmin(txCtx, project.TeamID, userID)
			if err != nil {
				return err
			}
			if !isAdmin {
				return domain.ErrPermissionDenied
			}
		}

		if _, err := s.statusRepo.GetForUpdate(txCtx, issue.StatusID); err != nil {
			return fmt.Errorf("failed to lock status: %w", err)
		}
		if err := s.issueRepo.SoftDelete(txCtx, issueID); err != nil {
			return fmt.Errorf("failed to delete issue: %w", err)
		}
		return s.issueRepo.CloseGap(txCtx, issue.StatusID, issue.Position)
	})
	if err != nil {
		return err
	}

	s.lg.Info("issue deleted", slog.Int64("issue_id", issueID))
	return nil
}

func (s *IssueService) GetProjectIssues(ctx context.Context, projectID, userID int64) ([]domain.Issue, error) {
	if _, err := s.checkProjectAccess(ctx, projectID, userID, false); err != nil {
		return nil, err
	}
	return s.issueRepo.ListByProject(ctx, projectID)
}

func (s *IssueService) GetStatusIssues(ctx context.Context, projectID, statusID, userID int64) ([]domain.Issue, error) {
	if _, err := s.checkProjectAccess(ctx, projectID, userID, false); err != nil {
		return nil, err
	}
	status, err := s.statusRepo.GetByID(ctx, statusID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	if status.ProjectID != projectID {
		return nil, domain.ErrStatusNotInProject
	}
	return s.issueRepo.ListByStatus(ctx, statusID)
}

func (s *IssueService) GetIssueHistory(ctx context.Context, issueID, userID int64, limit int) ([]domain.IssueHistory, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	if _, err := s.checkProjectAccess(ctx, issue.ProjectID, userID, false); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultActivityLimit
	}
	return s.historyRepo.ListByIssue(ctx, issueID, limit)
}

// CreateLabel adds a project label, capped at MaxLabelsPerProject.
func (s *IssueService) CreateLabel(ctx context.Context, projectID, userID int64, req domain.CreateLabelRequest) (*domain.Label, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var label *domain.Label
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.checkProjectAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		count, err := s.labelRepo.CountByProject(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("failed to count labels: %w", err)
		}
		if count >= domain.MaxLabelsPerProject {
			return domain.ErrProjectLabelLimit
		}

		label, err = s.labelRepo.Create(txCtx, projectID, req.Name, req.Color)
		if err != nil {
			return fmt.Errorf("failed to create label: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("label created", slog.Int64("project_id", projectID), slog.Int64("label_id", label.ID))
	return label, nil
}

func (s *IssueService) UpdateLabel(ctx context.Context, projectID, labelID, userID int64, req domain.UpdateLabelRequest) (*domain.Label, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var label *domain.Label
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.checkProjectAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		var err error
		label, err = s.labelRepo.GetByID(txCtx, labelID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrLabelNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get label: %w", err)
		}
		if label.ProjectID != projectID {
			return domain.ErrLabelNotInProject
		}

		if err := s.labelRepo.Update(txCtx, labelID, req.Name, req.Color); err != nil {
			return fmt.Errorf("failed to update label: %w", err)
		}
		label.Name = req.Name
		label.Color = req.Color
		return nil
	})
	if err != nil {
		return nil, err
	}
	return label, nil
}

func (s *IssueService) DeleteLabel(ctx context.Context, projectID, labelID, userID int64) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.checkProjectAccess(txCtx, projectID, userID, true); err != nil {
			return err
		}

		label, err := s.labelRepo.GetByID(txCtx, labelID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrLabelNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get label: %w", err)
		}
		if label.ProjectID != projectID {
			return domain.ErrLabelNotInProject
		}

		return s.labelRepo.Delete(txCtx, labelID)
	})
}

func (s *IssueService) GetProjectLabels(ctx context.Context, projectID, userID int64) ([]domain.Label, error) {
	if _, err := s.checkProjectAccess(ctx, projectID, userID, false); err != nil {
		return nil, err
	}
	return s.labelRepo.ListByProject(ctx, projectID)
}

// AttachLabel is idempotent; attaching an already attached label does
// not count against the per-issue cap twice.
func (s *IssueService) AttachLabel(ctx context.Context, issueID, labelID, userID int64) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		issue, err := s.issueRepo.GetByID(txCtx, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get issue: %w", err)
		}
		if _, err := s.checkProjectAccess(txCtx, issue.ProjectID, userID, true); err != nil {
			return err
		}

		label, err := s.labelRepo.GetByID(txCtx, labelID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrLabelNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get label: %w", err)
		}
		if label.ProjectID != issue.ProjectID {
			return domain.ErrLabelNotInProject
		}

		attached, err := s.labelRepo.LabelIDsByIssue(txCtx, issueID)
		if err != nil {
			return fmt.Errorf("failed to list issue labels: %w", err)
		}
		for _, id := range attached {
			if id == labelID {
				return nil
			}
		}
		if len(attached) >= domain.MaxLabelsPerIssue {
			return domain.ErrIssueLabelLimit
		}

		return s.labelRepo.Attach(txCtx, issueID, labelID)
	})
}

func (s *IssueService) DetachLabel(ctx context.Context, issueID, labelID, userID int64) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		issue, err := s.issueRepo.GetByID(txCtx, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get issue: %w", err)
		}
		if _, err := s.checkProjectAccess(txCtx, issue.ProjectID, userID, true); err != nil {
			return err
		}
		return s.labelRepo.Detach(txCtx, issueID, labelID)
	})
}

// replaceLabels diffs the current set against the requested one.
func (s *IssueService) replaceLabels(ctx context.Context, projectID, issueID int64, labelIDs []int64) error {
	if len(labelIDs) > 0 {
		inProject, err := s.labelRepo.CountInProject(ctx, projectID, labelIDs)
		if err != nil {
			return fmt.Errorf("failed to check labels: %w", err)
		}
		if inProject != len(labelIDs) {
			return domain.ErrLabelNotInProject
		}
	}

	current, err := s.labelRepo.LabelIDsByIssue(ctx, issueID)
	if err != nil {
		return fmt.Errorf("failed to list issue labels: %w", err)
	}

	want := make(map[int64]bool, len(labelIDs))
	for _, id := range labelIDs {
		want[id] = true
	}
	have := make(map[int64]bool, len(current))
	for _, id := range current {
		have[id] = true
		if !want[id] {
			if err := s.labelRepo.Detach(ctx, issueID, id); err != nil {
				return fmt.Errorf("failed to detach label: %w", err)
			}
		}
	}
	for _, id := range labelIDs {
		if !have[id] {
			if err := s.labelRepo.Attach(ctx, issueID, id); err != nil {
				return fmt.Errorf("failed to attach label: %w", err)
			}
		}
	}
	return nil
}

// lockPair locks the source and target columns in id order so two
// opposite moves cannot deadlock, and returns the target.
func (s *IssueService) lockPair(ctx context.Context, sourceID, targetID int64) (*domain.IssueStatus, error) {
	if sourceID == targetID {
		st, err := s.statusRepo.GetForUpdate(ctx, sourceID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrStatusNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock status: %w", err)
		}
		return st, nil
	}

	first, second := sourceID, targetID
	if second < first {
		first, second = second, first
	}

	var target *domain.IssueStatus
	for _, id := range []int64{first, second} {
		st, err := s.statusRepo.GetForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrStatusNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock status: %w", err)
		}
		if st.ID == targetID {
			target = st
		}
	}
	return target, nil
}

func (s *IssueService) checkProjectAccess(ctx context.Context, projectID, userID int64, mutating bool) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	ok, err := s.access.IsMember(ctx, project.TeamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	if mutating && project.IsArchived {
		return nil, domain.ErrProjectArchived
	}
	return project, nil
}

func (s *IssueService) checkAssignee(ctx context.Context, teamID, assigneeID int64) error {
	ok, err := s.access.IsMember(ctx, teamID, assigneeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMemberNotFound
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func strPtr(s string) *string { return &s }

func int64PtrStr(v *int64) *string {
	if v == nil {
		return nil
	}
	return strPtr(strconv.FormatInt(*v, 10))
}

func timePtrStr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return strPtr(t.Format(time.RFC3339))
}
