package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStatusRepo struct {
	nextID   int64
	statuses map[int64]*domain.IssueStatus
}

func (f *fakeStatusRepo) Create(_ context.Context, s domain.IssueStatus) (*domain.IssueStatus, error) {
	f.nextID++
	s.ID = f.nextID
	f.statuses[s.ID] = &s
	cp := s
	return &cp, nil
}

func (f *fakeStatusRepo) GetByID(_ context.Context, statusID int64) (*domain.IssueStatus, error) {
	s, ok := f.statuses[statusID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStatusRepo) GetForUpdate(ctx context.Context, statusID int64) (*domain.IssueStatus, error) {
	return f.GetByID(ctx, statusID)
}

func (f *fakeStatusRepo) GetDefault(_ context.Context, projectID int64) (*domain.IssueStatus, error) {
	for _, s := range f.statuses {
		if s.ProjectID == projectID && s.IsDefault {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStatusRepo) NameExists(_ context.Context, projectID int64, name string, excludeID int64) (bool, error) {
	for _, s := range f.statuses {
		if s.ProjectID == projectID && s.Name == name && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStatusRepo) NextPosition(_ context.Context, projectID int64) (int, error) {
	max := -1
	for _, s := range f.statuses {
		if s.ProjectID == projectID && s.Position > max {
			max = s.Position
		}
	}
	return max + 1, nil
}

func (f *fakeStatusRepo) UnsetDefaults(_ context.Context, projectID, keepID int64) error {
	for _, s := range f.statuses {
		if s.ProjectID == projectID && s.ID != keepID {
			s.IsDefault = false
		}
	}
	return nil
}

func (f *fakeStatusRepo) Update(_ context.Context, s domain.IssueStatus) error {
	cur := f.statuses[s.ID]
	cur.Name = s.Name
	cur.Color = s.Color
	cur.IsDefault = s.IsDefault
	cur.WipLimit = s.WipLimit
	return nil
}

func (f *fakeStatusRepo) SoftDelete(_ context.Context, statusID int64) error {
	delete(f.statuses, statusID)
	return nil
}

func (f *fakeStatusRepo) SetPosition(_ context.Context, statusID int64, position int) error {
	f.statuses[statusID].Position = position
	return nil
}

func (f *fakeStatusRepo) ListByProject(_ context.Context, projectID int64) ([]domain.IssueStatus, error) {
	var out []domain.IssueStatus
	for _, s := range f.statuses {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStatusRepo) ListByProjectForUpdate(ctx context.Context, projectID int64) ([]domain.IssueStatus, error) {
	return f.ListByProject(ctx, projectID)
}

func (f *fakeStatusRepo) CountsByStatus(context.Context, int64) (map[int64]int, error) {
	return map[int64]int{}, nil
}

type fakeIssueRepo struct {
	// issue id -> status id
	issues map[int64]int64
}

func (f *fakeIssueRepo) CountByStatus(_ context.Context, statusID, excludeIssueID int64) (int, error) {
	n := 0
	for id, sid := range f.issues {
		if sid == statusID && id != excludeIssueID {
			n++
		}
	}
	return n, nil
}

func (f *fakeIssueRepo) ReassignStatus(_ context.Context, fromStatusID, toStatusID int64) error {
	for id, sid := range f.issues {
		if sid == fromStatusID {
			f.issues[id] = toStatusID
		}
	}
	return nil
}

type fakeProjectRepo struct {
	archived bool
}

func (f *fakeProjectRepo) GetByID(_ context.Context, projectID int64) (*domain.Project, error) {
	return &domain.Project{ID: projectID, TeamID: 1, IsArchived: f.archived}, nil
}

type fakeAccess struct {
	members map[int64]bool
}

func (f fakeAccess) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

type fixture struct {
	svc      *StatusService
	statuses *fakeStatusRepo
	issues   *fakeIssueRepo
	projects *fakeProjectRepo
}

func newFixture() *fixture {
	f := &fixture{
		statuses: &fakeStatusRepo{statuses: map[int64]*domain.IssueStatus{}},
		issues:   &fakeIssueRepo{issues: map[int64]int64{}},
		projects: &fakeProjectRepo{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewStatusService(f.statuses, f.issues, f.projects, fakeAccess{members: map[int64]bool{10: true}}, fakeTx{}, logger)
	return f
}

func (f *fixture) seed(t *testing.T, name string, isDefault bool, wip *int) *domain.IssueStatus {
	t.Helper()
	pos, _ := f.statuses.NextPosition(context.Background(), 100)
	st, err := f.statuses.Create(context.Background(), domain.IssueStatus{
		ProjectID: 100, Name: name, Position: pos, IsDefault: isDefault, WipLimit: wip,
	})
	if err != nil {
		t.Fatalf("seed status: %v", err)
	}
	return st
}

func intPtr(v int) *int { return &v }

func TestCreateStatusAppendsAndInserts(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.seed(t, "To Do", true, nil)
	f.seed(t, "Done", false, nil)

	created, err := f.svc.CreateStatus(ctx, 100, 10, domain.CreateIssueStatusRequest{Name: "Review"})
	if err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}
	if created.Position != 2 {
		t.Errorf("appended position: got %d, want 2", created.Position)
	}

	inserted, err := f.svc.CreateStatus(ctx, 100, 10, domain.CreateIssueStatusRequest{Name: "In Progress", Position: intPtr(1)})
	if err != nil {
		t.Fatalf("CreateStatus insert: %v", err)
	}
	if inserted.Position != 1 {
		t.Errorf("inserted position: got %d, want 1", inserted.Position)
	}

	list, _ := f.statuses.ListByProject(ctx, 100)
	wantOrder := []string{"To Do", "In Progress", "Done", "Review"}
	for i, st := range list {
		if st.Name != wantOrder[i] || st.Position != i {
			t.Errorf("slot %d: got %s at %d, want %s", i, st.Name, st.Position, wantOrder[i])
		}
	}
}

func TestCreateStatusDuplicateName(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seed(t, "To Do", true, nil)

	_, err := f.svc.CreateStatus(context.Background(), 100, 10, domain.CreateIssueStatusRequest{Name: "To Do"})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("duplicate name: got %v, want ErrDuplicateName", err)
	}
}

func TestCreateStatusMovesDefaultFlag(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	old := f.seed(t, "To Do", true, nil)

	created, err := f.svc.CreateStatus(ctx, 100, 10, domain.CreateIssueStatusRequest{Name: "Inbox", IsDefault: true})
	if err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}
	if !created.IsDefault {
		t.Error("new status not default")
	}
	if got, _ := f.statuses.GetByID(ctx, old.ID); got.IsDefault {
		t.Error("old default flag not cleared")
	}
}

func TestUpdateStatusWIPTightenRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	st := f.seed(t, "In Progress", true, nil)
	f.issues.issues = map[int64]int64{1: st.ID, 2: st.ID, 3: st.ID}

	_, err := f.svc.UpdateStatus(ctx, 100, st.ID, 10, domain.UpdateIssueStatusRequest{
		Name: "In Progress", IsDefault: true, WipLimit: intPtr(2),
	})
	if !errors.Is(err, domain.ErrWIPLimitExceeded) {
		t.Fatalf("tighten below count: got %v, want ErrWIPLimitExceeded", err)
	}

	// Limit equal to the live count is accepted.
	updated, err := f.svc.UpdateStatus(ctx, 100, st.ID, 10, domain.UpdateIssueStatusRequest{
		Name: "In Progress", IsDefault: true, WipLimit: intPtr(3),
	})
	if err != nil {
		t.Fatalf("tighten to count: %v", err)
	}
	if updated.WipLimit == nil || *updated.WipLimit != 3 {
		t.Errorf("wip limit: got %v, want 3", updated.WipLimit)
	}
}

func TestUpdateStatusCannotDropDefault(t *testing.T) {
	t.Parallel()
	f := newFixture()
	st := f.seed(t, "To Do", true, nil)

	_, err := f.svc.UpdateStatus(context.Background(), 100, st.ID, 10, domain.UpdateIssueStatusRequest{
		Name: "To Do", IsDefault: false,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("drop default flag: got %v, want ErrInvalidInput", err)
	}
}

func TestDeleteStatusReassignsToDefault(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	def := f.seed(t, "To Do", true, nil)
	doomed := f.seed(t, "Limbo", false, nil)
	tail := f.seed(t, "Done", false, nil)
	f.issues.issues = map[int64]int64{1: doomed.ID, 2: doomed.ID}

	if err := f.svc.DeleteStatus(ctx, 100, doomed.ID, 10); err != nil {
		t.Fatalf("DeleteStatus: %v", err)
	}

	for id, sid := range f.issues.issues {
		if sid != def.ID {
			t.Errorf("issue %d: in status %d, want default %d", id, sid, def.ID)
		}
	}
	if got, _ := f.statuses.GetByID(ctx, tail.ID); got.Position != 1 {
		t.Errorf("tail position after delete: got %d, want 1", got.Position)
	}
}

func TestDeleteDefaultStatusRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	def := f.seed(t, "To Do", true, nil)

	if err := f.svc.DeleteStatus(context.Background(), 100, def.ID, 10); !errors.Is(err, domain.ErrDefaultStatusDelete) {
		t.Errorf("delete default: got %v, want ErrDefaultStatusDelete", err)
	}
}

func TestDeleteStatusRespectsDefaultWIP(t *testing.T) {
	t.Parallel()
	f := newFixture()
	def := f.seed(t, "To Do", true, intPtr(2))
	doomed := f.seed(t, "Limbo", false, nil)
	f.issues.issues = map[int64]int64{1: def.ID, 2: doomed.ID, 3: doomed.ID}

	if err := f.svc.DeleteStatus(context.Background(), 100, doomed.ID, 10); !errors.Is(err, domain.ErrWIPLimitExceeded) {
		t.Errorf("delete overflowing default: got %v, want ErrWIPLimitExceeded", err)
	}
	// Nothing moved.
	if f.issues.issues[2] != doomed.ID || f.issues.issues[3] != doomed.ID {
		t.Error("issues moved despite rejected delete")
	}
}

func TestReorderStatuses(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "A", true, nil)
	b := f.seed(t, "B", false, nil)
	c := f.seed(t, "C", false, nil)

	out, err := f.svc.ReorderStatuses(ctx, 100, 10, domain.ReorderRequest{IDs: []int64{c.ID, a.ID, b.ID}})
	if err != nil {
		t.Fatalf("ReorderStatuses: %v", err)
	}
	for i, st := range out {
		if st.Position != i {
			t.Errorf("reorder result slot %d: position %d", i, st.Position)
		}
	}
	list, _ := f.statuses.ListByProject(ctx, 100)
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i, st := range list {
		if st.ID != wantOrder[i] {
			t.Errorf("stored slot %d: got id %d, want %d", i, st.ID, wantOrder[i])
		}
	}
}

func TestReorderStatusesMismatch(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "A", true, nil)
	b := f.seed(t, "B", false, nil)

	cases := [][]int64{
		{a.ID},               // too short
		{a.ID, a.ID},         // duplicate
		{a.ID, b.ID, 999},    // too long
		{a.ID, 999},          // unknown id
	}
	for _, ids := range cases {
		if _, err := f.svc.ReorderStatuses(ctx, 100, 10, domain.ReorderRequest{IDs: ids}); !errors.Is(err, domain.ErrReorderMismatch) {
			t.Errorf("reorder %v: got %v, want ErrReorderMismatch", ids, err)
		}
	}
}

func TestBoardMutationsBlockedWhenArchived(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seed(t, "To Do", true, nil)
	f.projects.archived = true

	_, err := f.svc.CreateStatus(context.Background(), 100, 10, domain.CreateIssueStatusRequest{Name: "X"})
	if !errors.Is(err, domain.ErrProjectArchived) {
		t.Errorf("create on archived project: got %v, want ErrProjectArchived", err)
	}

	// Reads still work.
	if _, err := f.svc.GetStatuses(context.Background(), 100, 10); err != nil {
		t.Errorf("read on archived project: %v", err)
	}
}

func TestNonMemberDenied(t *testing.T) {
	t.Parallel()
	f := newFixture()
	st := f.seed(t, "To Do", true, nil)

	_, err := f.svc.CreateStatus(context.Background(), 100, 99, domain.CreateIssueStatusRequest{Name: "X"})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-member create: got %v, want ErrPermissionDenied", err)
	}
	if err := f.svc.DeleteStatus(context.Background(), 100, st.ID, 99); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-member delete: got %v, want ErrPermissionDenied", err)
	}
}
