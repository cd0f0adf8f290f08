package subtask

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

type fakeSubtaskRepo struct {
	nextID   int64
	subtasks map[int64]*domain.Subtask
}

func (f *fakeSubtaskRepo) Create(_ context.Context, st domain.Subtask) (*domain.Subtask, error) {
	f.nextID++
	st.ID = f.nextID
	f.subtasks[st.ID] = &st
	cp := st
	return &cp, nil
}

func (f *fakeSubtaskRepo) GetByID(_ context.Context, subtaskID, issueID int64) (*domain.Subtask, error) {
	st, ok := f.subtasks[subtaskID]
	if !ok || st.IssueID != issueID {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeSubtaskRepo) Update(_ context.Context, st domain.Subtask) error {
	cur := f.subtasks[st.ID]
	cur.Title = st.Title
	cur.IsDone = st.IsDone
	cur.AssigneeID = st.AssigneeID
	return nil
}

func (f *fakeSubtaskRepo) Delete(_ context.Context, subtaskID int64) error {
	delete(f.subtasks, subtaskID)
	return nil
}

func (f *fakeSubtaskRepo) NextPosition(_ context.Context, issueID int64) (int, error) {
	max := -1
	for _, st := range f.subtasks {
		if st.IssueID == issueID && st.Position > max {
			max = st.Position
		}
	}
	return max + 1, nil
}

func (f *fakeSubtaskRepo) CloseGap(_ context.Context, issueID int64, vacatedPosition int) error {
	for _, st := range f.subtasks {
		if st.IssueID == issueID && st.Position > vacatedPosition {
			st.Position--
		}
	}
	return nil
}

func (f *fakeSubtaskRepo) SetPosition(_ context.Context, subtaskID int64, position int) error {
	f.subtasks[subtaskID].Position = position
	return nil
}

func (f *fakeSubtaskRepo) ListByIssue(_ context.Context, issueID int64) ([]domain.Subtask, error) {
	var out []domain.Subtask
	for _, st := range f.subtasks {
		if st.IssueID == issueID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeSubtaskRepo) ListByIssueForUpdate(ctx context.Context, issueID int64) ([]domain.Subtask, error) {
	return f.ListByIssue(ctx, issueID)
}

type fakeIssueRepo struct{}

func (fakeIssueRepo) GetByID(_ context.Context, issueID int64) (*domain.Issue, error) {
	if issueID != 1000 {
		return nil, repository.ErrNotFound
	}
	return &domain.Issue{ID: issueID, ProjectID: 100}, nil
}

type fakeProjectRepo struct{}

func (fakeProjectRepo) GetByID(_ context.Context, projectID int64) (*domain.Project, error) {
	return &domain.Project{ID: projectID, TeamID: 1}, nil
}

type fakeAccess struct {
	members map[int64]bool
}

func (f fakeAccess) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

func newService() (*SubtaskService, *fakeSubtaskRepo) {
	repo := &fakeSubtaskRepo{subtasks: map[int64]*domain.Subtask{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewSubtaskService(repo, fakeIssueRepo{}, fakeProjectRepo{},
		fakeAccess{members: map[int64]bool{10: true, 11: true}}, fakeTx{}, logger)
	return svc, repo
}

func TestCreateSubtaskAppends(t *testing.T) {
	t.Parallel()
	svc, repo := newService()
	ctx := context.Background()

	for i, title := range []string{"one", "two", "three"} {
		st, err := svc.CreateSubtask(ctx, 1000, 10, domain.CreateSubtaskRequest{Title: title})
		if err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
		if st.Position != i {
			t.Errorf("%q position: got %d, want %d", title, st.Position, i)
		}
	}

	pos := 0
	if _, err := svc.CreateSubtask(ctx, 1000, 10, domain.CreateSubtaskRequest{Title: "first", Position: &pos}); err != nil {
		t.Fatalf("insert at head: %v", err)
	}

	list, _ := repo.ListByIssue(ctx, 1000)
	want := []string{"first", "one", "two", "three"}
	for i, st := range list {
		if st.Title != want[i] || st.Position != i {
			t.Errorf("slot %d: got %q at %d, want %q", i, st.Title, st.Position, want[i])
		}
	}
}

func TestUpdateSubtask(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()

	st, err := svc.CreateSubtask(ctx, 1000, 10, domain.CreateSubtaskRequest{Title: "task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := true
	assignee := int64(11)
	updated, err := svc.UpdateSubtask(ctx, 1000, st.ID, 10, domain.UpdateSubtaskRequest{IsDone: &done, AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsDone || updated.AssigneeID == nil || *updated.AssigneeID != 11 {
		t.Errorf("updated subtask: %+v, want done and assigned to 11", updated)
	}

	// Assigning a non-member is rejected.
	outsider := int64(99)
	if _, err := svc.UpdateSubtask(ctx, 1000, st.ID, 10, domain.UpdateSubtaskRequest{AssigneeID: &outsider}); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("assign outsider: got %v, want ErrMemberNotFound", err)
	}

	// Unassign clears the assignee.
	updated, err = svc.UpdateSubtask(ctx, 1000, st.ID, 10, domain.UpdateSubtaskRequest{Unassign: true})
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if updated.AssigneeID != nil {
		t.Errorf("assignee after unassign: got %v, want nil", updated.AssigneeID)
	}
}

func TestDeleteSubtaskClosesGap(t *testing.T) {
	t.Parallel()
	svc, repo := newService()
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		st, _ := svc.CreateSubtask(ctx, 1000, 10, domain.CreateSubtaskRequest{Title: title})
		ids = append(ids, st.ID)
	}

	if err := svc.DeleteSubtask(ctx, 1000, ids[1], 10); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, _ := repo.ListByIssue(ctx, 1000)
	want := []string{"one", "three"}
	for i, st := range list {
		if st.Title != want[i] || st.Position != i {
			t.Errorf("slot %d: got %q at %d, want %q", i, st.Title, st.Position, want[i])
		}
	}
}

func TestReorderSubtasksRoundTrip(t *testing.T) {
	t.Parallel()
	svc, repo := newService()
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		st, _ := svc.CreateSubtask(ctx, 1000, 10, domain.CreateSubtaskRequest{Title: title})
		ids = append(ids, st.ID)
	}

	reversed := []int64{ids[2], ids[1], ids[0]}
	out, err := svc.ReorderSubtasks(ctx, 1000, 10, domain.ReorderRequest{IDs: reversed})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	for i, st := range out {
		if st.ID != reversed[i] || st.Position != i {
			t.Errorf("result slot %d: got id %d at %d", i, st.ID, st.Position)
		}
	}

	// Reordering back restores the original order.
	if _, err := svc.ReorderSubtasks(ctx, 1000, 10, domain.ReorderRequest{IDs: ids}); err != nil {
		t.Fatalf("reorder back: %v", err)
	}
	list, _ := repo.ListByIssue(ctx, 1000)
	for i, st := range list {
		if st.ID != ids[i] {
			t.Errorf("round trip slot %d: got id %d, want %d", i, st.ID, ids[i])
		}
	}

	// A partial list is rejected with positions untouched.
	if _, err := svc.ReorderSubtasks(ctx, 1000, 10, domain.ReorderRequest{IDs: ids[:2]}); !errors.Is(err, domain.ErrReorderMismatch) {
		t.Errorf("partial reorder: got %v, want ErrReorderMismatch", err)
	}
}
