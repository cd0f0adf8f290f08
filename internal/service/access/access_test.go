package access

import (
	"context"
	"testing"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type fakeMembers struct {
	roles map[[2]int64]domain.Role
}

func (f *fakeMembers) RoleOf(_ context.Context, teamID, userID int64) (*domain.Role, error) {
	if role, ok := f.roles[[2]int64{teamID, userID}]; ok {
		return &role, nil
	}
	return nil, nil
}

type fakeProjects struct {
	projects map[int64]domain.Project
}

func (f *fakeProjects) GetByID(_ context.Context, projectID int64) (*domain.Project, error) {
	if p, ok := f.projects[projectID]; ok {
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

type fakeIssues struct {
	issues map[int64]domain.Issue
}

func (f *fakeIssues) GetByID(_ context.Context, issueID int64) (*domain.Issue, error) {
	if i, ok := f.issues[issueID]; ok {
		return &i, nil
	}
	return nil, repository.ErrNotFound
}

func newTestResolver() *Resolver {
	return NewResolver(
		&fakeMembers{roles: map[[2]int64]domain.Role{
			{1, 10}: domain.RoleOwner,
			{1, 11}: domain.RoleAdmin,
			{1, 12}: domain.RoleMember,
		}},
		&fakeProjects{projects: map[int64]domain.Project{
			100: {ID: 100, TeamID: 1, OwnerID: 12},
		}},
		&fakeIssues{issues: map[int64]domain.Issue{
			1000: {ID: 1000, ProjectID: 100},
		}},
	)
}

func TestHasPermissionLadder(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := context.Background()

	cases := []struct {
		userID int64
		min    domain.Role
		want   bool
	}{
		{10, domain.RoleOwner, true},
		{10, domain.RoleAdmin, true},
		{11, domain.RoleOwner, false},
		{11, domain.RoleAdmin, true},
		{11, domain.RoleMember, true},
		{12, domain.RoleAdmin, false},
		{12, domain.RoleMember, true},
		{99, domain.RoleMember, false},
	}
	for _, tc := range cases {
		got, err := r.HasPermission(ctx, 1, tc.userID, tc.min)
		if err != nil {
			t.Fatalf("HasPermission(1, %d, %s): %v", tc.userID, tc.min, err)
		}
		if got != tc.want {
			t.Errorf("HasPermission(1, %d, %s): got %v, want %v", tc.userID, tc.min, got, tc.want)
		}
	}
}

func TestHasProjectAccess(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := context.Background()

	ok, err := r.HasProjectAccess(ctx, 100, 12)
	if err != nil || !ok {
		t.Errorf("member access to project: got ok=%v err=%v, want true", ok, err)
	}

	ok, err = r.HasProjectAccess(ctx, 100, 99)
	if err != nil || ok {
		t.Errorf("non-member access to project: got ok=%v err=%v, want false", ok, err)
	}

	// A vanished project is a denial, not an error.
	ok, err = r.HasProjectAccess(ctx, 404, 10)
	if err != nil || ok {
		t.Errorf("access to missing project: got ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestHasIssueAccess(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := context.Background()

	ok, err := r.HasIssueAccess(ctx, 1000, 11)
	if err != nil || !ok {
		t.Errorf("member access to issue: got ok=%v err=%v, want true", ok, err)
	}

	ok, err = r.HasIssueAccess(ctx, 9999, 11)
	if err != nil || ok {
		t.Errorf("access to missing issue: got ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestIsProjectOwner(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := context.Background()

	ok, err := r.IsProjectOwner(ctx, 100, 12)
	if err != nil || !ok {
		t.Errorf("project owner check: got ok=%v err=%v, want true", ok, err)
	}

	// Team ownership does not imply project ownership.
	ok, err = r.IsProjectOwner(ctx, 100, 10)
	if err != nil || ok {
		t.Errorf("team owner as project owner: got ok=%v err=%v, want false", ok, err)
	}
}
