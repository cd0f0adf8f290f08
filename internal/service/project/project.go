package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/pkg/database"
)

type ProjectRepository interface {
	Create(ctx context.Context, teamID, ownerID int64, name, description string) (*domain.Project, error)
	GetByID(ctx context.Context, projectID int64) (*domain.Project, error)
	Update(ctx context.Context, projectID int64, name, description string) error
	SetArchived(ctx context.Context, projectID int64, archived bool) error
	SoftDelete(ctx context.Context, projectID int64) error
	ListByTeam(ctx context.Context, teamID int64) ([]domain.Project, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Project, error)
}

type StatusRepository interface {
	Create(ctx context.Context, status domain.IssueStatus) (*domain.IssueStatus, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID, projectID int64) error
	Remove(ctx context.Context, userID, projectID int64) error
	Is(ctx context.Context, userID, projectID int64) (bool, error)
	ListProjects(ctx context.Context, userID int64) ([]domain.Project, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, entry domain.ActivityLog) error
}

type AccessResolver interface {
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, teamID, userID int64) (bool, error)
	HasProjectAccess(ctx context.Context, projectID, userID int64) (bool, error)
	IsProjectOwner(ctx context.Context, projectID, userID int64) (bool, error)
}

// Default board columns seeded into every new project.
var defaultStatuses = []struct {
	name      string
	color     string
	isDefault bool
}{
	{"To Do", "#6B7280", true},
	{"In Progress", "#3B82F6", false},
	{"Done", "#10B981", false},
}

type ProjectService struct {
	projectRepo  ProjectRepository
	statusRepo   StatusRepository
	favoriteRepo FavoriteRepository
	activityRepo ActivityRepository
	access       AccessResolver
	txManager    database.TransactionManagerInterface
	lg           *slog.Logger
}

func NewProjectService(projectRepo ProjectRepository,
	statusRepo StatusRepository,
	favoriteRepo FavoriteRepository,
	activityRepo ActivityRepository,
	access AccessResolver,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *ProjectService {
	return &ProjectService{
		projectRepo:  projectRepo,
		statusRepo:   statusRepo,
		favoriteRepo: favoriteRepo,
		activityRepo: activityRepo,
		access:       access,
		txManager:    txManager,
		lg:           lg,
	}
}

// CreateProject creates the project with its default board columns in
// one transaction. Any team member may create a project.
func (s *ProjectService) CreateProject(ctx context.Context, teamID, userID int64, req domain.CreateProjectRequest) (*domain.Project, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var project *domain.Project
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		ok, err := s.access.IsMember(txCtx, teamID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPermissionDenied
		}

		project, err = s.projectRepo.Create(txCtx, teamID, userID, req.Name, req.Description)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		for i, st := range defaultStatuses {
			if _, err := s.statusRepo.Create(txCtx, domain.IssueStatus{
				ProjectID: project.ID,
				Name:      st.name,
				Color:     st.color,
				Position:  i,
				IsDefault: st.isDefault,
			}); err != nil {
				return fmt.Errorf("failed to seed status: %w", err)
			}
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     teamID,
			ActorID:    userID,
			ActionType: domain.ActionProjectCreated,
			TargetID:   &project.ID,
			TargetType: "Project",
			Message:    fmt.Sprintf("Created project %q", project.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("project created", slog.Int64("project_id", project.ID), slog.Int64("team_id", teamID))
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectID, userID int64) (*domain.Project, error) {
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

	return project, nil
}

// UpdateProject is allowed for the project owner or a team ADMIN.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, userID int64, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidInput
	}

	var project *domain.Project
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		project, err = s.getManaged(txCtx, projectID, userID)
		if err != nil {
			return err
		}

		if err := s.projectRepo.Update(txCtx, projectID, req.Name, req.Description); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		project.Name = req.Name
		project.Description = req.Description

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     project.TeamID,
			ActorID:    userID,
			ActionType: domain.ActionProjectUpdated,
			TargetID:   &projectID,
			TargetType: "Project",
			Message:    fmt.Sprintf("Updated project %q", req.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("project updated", slog.Int64("project_id", projectID))
	return project, nil
}

// SetArchived toggles the archived flag. Archived projects stay
// readable but reject board mutations at the service layer.
func (s *ProjectService) SetArchived(ctx context.Context, projectID, userID int64, archived bool) (*domain.Project, error) {
	var project *domain.Project
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		project, err = s.getManaged(txCtx, projectID, userID)
		if err != nil {
			return err
		}

		if project.IsArchived == archived {
			return nil
		}

		if err := s.projectRepo.SetArchived(txCtx, projectID, archived); err != nil {
			return fmt.Errorf("failed to set archived: %w", err)
		}
		project.IsArchived = archived

		actionType := domain.ActionProjectArchived
		message := fmt.Sprintf("Archived project %q", project.Name)
		if !archived {
			actionType = domain.ActionProjectUnarchived
			message = fmt.Sprintf("Unarchived project %q", project.Name)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     project.TeamID,
			ActorID:    userID,
			ActionType: actionType,
			TargetID:   &projectID,
			TargetType: "Project",
			Message:    message,
		})
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("project archive toggled", slog.Int64("project_id", projectID), slog.Bool("archived", archived))
	return project, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		project, err := s.getManaged(txCtx, projectID, userID)
		if err != nil {
			return err
		}

		if err := s.projectRepo.SoftDelete(txCtx, projectID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}

		return s.activityRepo.Append(txCtx, domain.ActivityLog{
			TeamID:     project.TeamID,
			ActorID:    userID,
			ActionType: domain.ActionProjectDeleted,
			TargetID:   &projectID,
			TargetType: "Project",
			Message:    fmt.Sprintf("Deleted project %q", project.Name),
		})
	})
	if err != nil {
		return err
	}

	s.lg.Info("project deleted", slog.Int64("project_id", projectID))
	return nil
}

func (s *ProjectService) GetTeamProjects(ctx context.Context, teamID, userID int64) ([]domain.Project, error) {
	ok, err := s.access.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	return s.projectRepo.ListByTeam(ctx, teamID)
}

func (s *ProjectService) GetMyProjects(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.projectRepo.ListByUser(ctx, userID)
}

// AddFavorite is idempotent; favoriting twice is not an error.
func (s *ProjectService) AddFavorite(ctx context.Context, projectID, userID int64) error {
	ok, err := s.access.HasProjectAccess(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}

	if err := s.favoriteRepo.Add(ctx, userID, projectID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite is idempotent; removing an absent favorite is a no-op.
func (s *ProjectService) RemoveFavorite(ctx context.Context, projectID, userID int64) error {
	ok, err := s.access.HasProjectAccess(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}

	if err := s.favoriteRepo.Remove(ctx, userID, projectID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *ProjectService) GetFavoriteProjects(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.favoriteRepo.ListProjects(ctx, userID)
}

// getManaged loads the project and checks that the caller is either
// the project owner or at least a team ADMIN.
func (s *ProjectService) getManaged(ctx context.Context, projectID, userID int64) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if project.OwnerID == userID {
		ok, err := s.access.IsMember(ctx, project.TeamID, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			return project, nil
		}
	}

	ok, err := s.access.IsAdmin(ctx, project.TeamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	return project, nil
}
