package subtask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type SubtaskRepository interface {
	Create(ctx context.Context, st domain.Subtask) (*domain.Subtask, error)
	GetByID(ctx context.Context, subtaskID, issueID int64) (*domain.Subtask, error)
	Update(ctx context.Context, st domain.Subtask) error
	Delete(ctx context.Context, subtaskID int64) error
	NextPosition(ctx context.Context, issueID int64) (int, error)
	CloseGap(ctx context.Context, issueID int64, vacatedPosition int) error
	SetPosition(ctx context.Context, subtaskID int64, position int) error
	ListByIssue(ctx context.Context, issueID int64) ([]domain.Subtask, error)
	ListByIssueForUpdate(ctx context.Context, issueID int64) ([]domain.Subtask, error)
}

type IssueRepository interface {
	GetByID(ctx context.Context, issueID int64) (*domain.Issue, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
}

type SubtaskService struct {
	subtaskRepo SubtaskRepository
	issueRepo   IssueRepository
	projectRepo ProjectRepository
	access      AccessResolver
	txManager   database.TransactionManagerInterface
	lg          *slog.Logger
}

func NewSubtaskService(subtaskRepo SubtaskRepository,
	issueRepo IssueRepository,
	projectRepo ProjectRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *SubtaskService {
	return &SubtaskService{
		subtaskRepo: subtaskRepo,
		issueRepo:   issueRepo,
		projectRepo: projectRepo,
		access:      access,
		txManager:   txManager,
		lg:          lg,
	}
}

// CreateSubtask appends to the issue's checklist, or inserts at an
// explicit position shifting the tail right.
func (s *SubtaskService) CreateSubtask(ctx context.Context, issueID, userID int64, req domain.CreateSubtaskRequest) (*domain.Subtask, error) {
	if req.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	var subtask *domain.Subtask
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkIssueAccess(txCtx, issueID, userID, true); err != nil {
			return err
		}

		existing, err := s.subtaskRepo.ListByIssueForUpdate(txCtx, issueID)
		if err != nil {
			return fmt.Errorf("failed to list subtasks: %w", err)
		}

		position := len(existing)
		if req.Position != nil {
			position = clamp(*req.Position, 0, len(existing))
		}

		subtask, err = s.subtaskRepo.Create(txCtx, domain.Subtask{
			IssueID:  issueID,
			Title:    req.Title,
			Position: position,
		})
		if err != nil {
			return fmt.Errorf("failed to create subtask: %w", err)
		}

		for _, st := range existing {
			if st.Position >= position {
				if err := s.subtaskRepo.SetPosition(txCtx, st.ID, st.Position+1); err != nil {
					return fmt.Errorf("failed to shift subtask: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("subtask created", slog.Int64("issue_id", issueID), slog.Int64("subtask_id", subtask.ID))
	return subtask, nil
}

func (s *SubtaskService) UpdateSubtask(ctx context.Context, issueID, subtaskID, userID int64, req domain.UpdateSubtaskRequest) (*domain.Subtask, error) {
	if req.Title != nil && *req.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	var subtask *domain.Subtask
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		issue, err := s.getIssue(txCtx, issueID)
		if err != nil {
			return err
		}
		project, err := s.checkProject(txCtx, issue.ProjectID, userID, true)
		if err != nil {
			return err
		}

		subtask, err = s.subtaskRepo.GetByID(txCtx, subtaskID, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrSubtaskNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get subtask: %w", err)
		}

		if req.Title != nil {
			subtask.Title = *req.Title
		}
		if req.IsDone != nil {
			subtask.IsDone = *req.IsDone
		}
		if req.Unassign {
			subtask.AssigneeID = nil
		} else if req.AssigneeID != nil {
			ok, err := s.access.IsMember(txCtx, project.TeamID, *req.AssigneeID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrMemberNotFound
			}
			subtask.AssigneeID = req.AssigneeID
		}

		if err := s.subtaskRepo.Update(txCtx, *subtask); err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("subtask updated", slog.Int64("subtask_id", subtaskID))
	return subtask, nil
}

func (s *SubtaskService) DeleteSubtask(ctx context.Context, issueID, subtaskID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkIssueAccess(txCtx, issueID, userID, true); err != nil {
			return err
		}

		subtask, err := s.subtaskRepo.GetByID(txCtx, subtaskID, issueID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrSubtaskNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get subtask: %w", err)
		}

		if err := s.subtaskRepo.Delete(txCtx, subtaskID); err != nil {
			return fmt.Errorf("failed to delete subtask: %w", err)
		}
		return s.subtaskRepo.CloseGap(txCtx, issueID, subtask.Position)
	})
	if err != nil {
		return err
	}

	s.lg.Info("subtask deleted", slog.Int64("issue_id", issueID), slog.Int64("subtask_id", subtaskID))
	return nil
}

// ReorderSubtasks rewrites checklist positions from the given id list,
// which must be an exact permutation of the issue's subtasks.
func (s *SubtaskService) ReorderSubtasks(ctx context.Context, issueID, userID int64, req domain.ReorderRequest) ([]domain.Subtask, error) {
	var out []domain.Subtask
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkIssueAccess(txCtx, issueID, userID, true); err != nil {
			return err
		}

		subtasks, err := s.subtaskRepo.ListByIssueForUpdate(txCtx, issueID)
		if err != nil {
			return fmt.Errorf("failed to list subtasks: %w", err)
		}

		byID := make(map[int64]*domain.Subtask, len(subtasks))
		for i := range subtasks {
			byID[subtasks[i].ID] = &subtasks[i]
		}
		if len(req.IDs) != len(subtasks) {
			return domain.ErrReorderMismatch
		}

		seen := make(map[int64]bool, len(req.IDs))
		for _, id := range req.IDs {
			if seen[id] || byID[id] == nil {
				return domain.ErrReorderMismatch
			}
			seen[id] = true
		}

		out = make([]domain.Subtask, 0, len(req.IDs))
		for i, id := range req.IDs {
			st := byID[id]
			if st.Position != i {
				if err := s.subtaskRepo.SetPosition(txCtx, id, i); err != nil {
					return fmt.Errorf("failed to set position: %w", err)
				}
				st.Position = i
			}
			out = append(out, *st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("subtasks reordered", slog.Int64("issue_id", issueID))
	return out, nil
}

func (s *SubtaskService) GetSubtasks(ctx context.Context, issueID, userID int64) ([]domain.Subtask, error) {
	if err := s.checkIssueAccess(ctx, issueID, userID, false); err != nil {
		return nil, err
	}
	return s.subtaskRepo.ListByIssue(ctx, issueID)
}

func (s *SubtaskService) getIssue(ctx context.Context, issueID int64) (*domain.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

func (s *SubtaskService) checkProject(ctx context.Context, projectID, userID int64, mutating bool) (*domain.Project, error) {
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

func (s *SubtaskService) checkIssueAccess(ctx context.Context, issueID, userID int64, mutating bool) error {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return err
	}
	_, err = s.checkProject(ctx, issue.ProjectID, userID, mutating)
	return err
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
