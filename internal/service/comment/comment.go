package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type CommentRepository interface {
	Create(ctx context.Context, issueID, authorID int64, body string) (*domain.Comment, error)
	GetByID(ctx context.Context, commentID int64) (*domain.Comment, error)
	Update(ctx context.Context, commentID int64, body string) error
	SoftDelete(ctx context.Context, commentID int64) error
	ListByIssue(ctx context.Context, issueID int64) ([]domain.Comment, error)
}

type IssueRepository interface {
	GetByID(ctx context.Context, issueID int64) (*domain.Issue, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
}

type AccessResolver interface {
	HasProjectAccess(ctx context.Context, projectID, userID int64) (bool, error)
}

type CommentService struct {
	commentRepo      CommentRepository
	issueRepo        IssueRepository
	projectRepo      ProjectRepository
	notificationRepo NotificationRepository
	access           AccessResolver
	txManager        database.TransactionManagerInterface
	lg               *slog.Logger
}

func NewCommentService(commentRepo CommentRepository,
	issueRepo IssueRepository,
	projectRepo ProjectRepository,
	notificationRepo NotificationRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *CommentService {
	return &CommentService{
		commentRepo:      commentRepo,
		issueRepo:        issueRepo,
		projectRepo:      projectRepo,
		notificationRepo: notificationRepo,
		access:           access,
		txManager:        txManager,
		lg:               lg,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, issueID, userID int64, req domain.CreateCommentRequest) (*domain.Comment, error) {
	if req.Body == "" {
		return nil, domain.ErrInvalidInput
	}

	var comment *domain.Comment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		issue, err := s.checkIssueAccess(txCtx, issueID, userID, true)
		if err != nil {
			return err
		}

		comment, err = s.commentRepo.Create(txCtx, issueID, userID, req.Body)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		return s.notifyCommented(txCtx, issue, userID)
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("comment created", slog.Int64("issue_id", issueID), slog.Int64("comment_id", comment.ID))
	return comment, nil
}

// notifyCommented tells the issue owner and assignee about a new
// comment, skipping the commenter themselves.
func (s *CommentService) notifyCommented(ctx context.Context, issue *domain.Issue, commenterID int64) error {
	payload, err := json.Marshal(map[string]any{
		"issue_id":    issue.ID,
		"issue_title": issue.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to encode comment payload: %w", err)
	}

	recipients := []int64{}
	if issue.OwnerID != commenterID {
		recipients = append(recipients, issue.OwnerID)
	}
	if issue.AssigneeID != nil && *issue.AssigneeID != commenterID && *issue.AssigneeID != issue.OwnerID {
		recipients = append(recipients, *issue.AssigneeID)
	}

	for _, userID := range recipients {
		_, err := s.notificationRepo.Create(ctx, domain.Notification{
			UserID:  userID,
			Type:    domain.NotificationIssueCommented,
			Title:   fmt.Sprintf("New comment on issue: %s", issue.Title),
			Message: fmt.Sprintf("A new comment was added to issue '%s'", issue.Title),
			Payload: payload,
		})
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}
	return nil
}

// UpdateComment is author-only; team role does not override authorship.
func (s *CommentService) UpdateComment(ctx context.Context, issueID, commentID, userID int64, req domain.UpdateCommentRequest) (*domain.Comment, error) {
	if req.Body == "" {
		return nil, domain.ErrInvalidInput
	}

	var comment *domain.Comment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.checkIssueAccess(txCtx, issueID, userID, true); err != nil {
			return err
		}

		var err error
		comment, err = s.getOwn(txCtx, issueID, commentID, userID)
		if err != nil {
			return err
		}

		if err := s.commentRepo.Update(txCtx, commentID, req.Body); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		comment.Body = req.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment is author-only, mirroring UpdateComment.
func (s *CommentService) DeleteComment(ctx context.Context, issueID, commentID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.checkIssueAccess(txCtx, issueID, userID, true); err != nil {
			return err
		}

		if _, err := s.getOwn(txCtx, issueID, commentID, userID); err != nil {
			return err
		}
		return s.commentRepo.SoftDelete(txCtx, commentID)
	})
	if err != nil {
		return err
	}

	s.lg.Info("comment deleted", slog.Int64("comment_id", commentID))
	return nil
}

func (s *CommentService) GetComments(ctx context.Context, issueID, userID int64) ([]domain.Comment, error) {
	if _, err := s.checkIssueAccess(ctx, issueID, userID, false); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByIssue(ctx, issueID)
}

func (s *CommentService) getOwn(ctx context.Context, issueID, commentID, userID int64) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment.IssueID != issueID {
		return nil, domain.ErrCommentNotFound
	}
	if comment.AuthorID != userID {
		return nil, domain.ErrPermissionDenied
	}
	return comment, nil
}

func (s *CommentService) checkIssueAccess(ctx context.Context, issueID, userID int64, mutating bool) (*domain.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	ok, err := s.access.HasProjectAccess(ctx, issue.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	if mutating {
		project, err := s.projectRepo.GetByID(ctx, issue.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
		if project.IsArchived {
			return nil, domain.ErrProjectArchived
		}
	}
	return issue, nil
}
