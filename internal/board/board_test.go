package board

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/existflow/taskboard/internal/model"
)

var base = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func testColumns() []model.Column {
	return []model.Column{
		{ID: "todo", Title: "To Do", IsDefault: true, Position: 0},
		{ID: "doing", Title: "In Progress", IsDefault: true, Position: 1},
		{ID: "done", Title: "Done", IsDefault: true, Position: 2},
	}
}

func testTask(id, status string, pos int) model.Task {
	due := base.Add(48 * time.Hour)
	return model.Task{
		ID:          id,
		WorkspaceID: "ws",
		Title:       "task " + id,
		Description: "about " + id,
		Status:      status,
		Priority:    model.PriorityHigh,
		Position:    pos,
		ProjectID:   "p1",
		DueDate:     &due,
		CreatedAt:   base,
	}
}

// a, b, c in todo; d, e in doing
func testTasks() []model.Task {
	return []model.Task{
		testTask("a", "todo", 0),
		testTask("b", "todo", 1),
		testTask("c", "todo", 2),
		testTask("d", "doing", 0),
		testTask("e", "doing", 1),
	}
}

func laneOrder(tasks []model.Task, column string) []string {
	var ids []string
	for _, t := range ColumnTasks(tasks, column) {
		ids = append(ids, t.ID)
	}
	return ids
}

func find(tasks []model.Task, id string) model.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return model.Task{}
}

func TestMoveToOtherColumnOnlyChangesStatusAndPosition(t *testing.T) {
	tasks := testTasks()
	res, err := Move(tasks, testColumns(), MoveRequest{TaskID: "b", Over: Target{Kind: TargetColumn, ID: "done"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	before := find(tasks, "b")
	after := find(res.Tasks, "b")
	if after.Status != "done" {
		t.Fatalf("expected status done, got %s", after.Status)
	}

	// Everything except status and position must be untouched
	before.Status, before.Position = after.Status, after.Position
	if !reflect.DeepEqual(before, after) {
		t.Errorf("move changed more than status/position:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestMoveOntoColumnAppends(t *testing.T) {
	res, err := Move(testTasks(), testColumns(), MoveRequest{TaskID: "a", Over: Target{Kind: TargetColumn, ID: "doing"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	if got := laneOrder(res.Tasks, "doing"); !reflect.DeepEqual(got, []string{"d", "e", "a"}) {
		t.Errorf("doing lane: got %v", got)
	}
	if got := laneOrder(res.Tasks, "todo"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("todo lane: got %v", got)
	}
	if res.Moved.ID != "a" || res.Moved.Position != 2 {
		t.Errorf("unexpected moved task %+v", res.Moved)
	}
	// b and c shift up, a moves
	if len(res.Changed) != 3 {
		t.Errorf("expected 3 changed tasks, got %d", len(res.Changed))
	}
}

func TestMoveOntoTaskInOtherColumnTakesItsSlot(t *testing.T) {
	res, err := Move(testTasks(), testColumns(), MoveRequest{TaskID: "c", Over: Target{Kind: TargetTask, ID: "d"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	if got := laneOrder(res.Tasks, "doing"); !reflect.DeepEqual(got, []string{"c", "d", "e"}) {
		t.Errorf("doing lane: got %v", got)
	}
	if find(res.Tasks, "c").Status != "doing" {
		t.Error("task target should decide the destination column")
	}
}

func TestSameColumnReorder(t *testing.T) {
	// Dragging down lands after the target
	res, err := Move(testTasks(), testColumns(), MoveRequest{TaskID: "a", Over: Target{Kind: TargetTask, ID: "b"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := laneOrder(res.Tasks, "todo"); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("drag down: got %v", got)
	}

	// Dragging up lands before the target
	res, err = Move(testTasks(), testColumns(), MoveRequest{TaskID: "c", Over: Target{Kind: TargetTask, ID: "a"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := laneOrder(res.Tasks, "todo"); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("drag up: got %v", got)
	}
	if find(res.Tasks, "c").Status != "todo" {
		t.Error("same-column reorder must not change status")
	}
	// The other lane is untouched
	for _, ch := range res.Changed {
		if ch.Status != "todo" {
			t.Errorf("unexpected change outside the lane: %+v", ch)
		}
	}
}

func TestMoveNoops(t *testing.T) {
	tasks := testTasks()

	res, err := Move(tasks, testColumns(), MoveRequest{TaskID: "a", Over: Target{Kind: TargetTask, ID: "a"}})
	if err != nil || len(res.Changed) != 0 {
		t.Errorf("drop on self: err=%v changed=%d", err, len(res.Changed))
	}

	res, err = Move(tasks, testColumns(), MoveRequest{TaskID: "a", Over: Target{Kind: TargetColumn, ID: "todo"}})
	if err != nil || len(res.Changed) != 0 {
		t.Errorf("drop on own column: err=%v changed=%d", err, len(res.Changed))
	}
}

func TestMoveErrors(t *testing.T) {
	tasks := testTasks()
	cols := testColumns()

	cases := []struct {
		name string
		req  MoveRequest
		want error
	}{
		{"unknown task", MoveRequest{TaskID: "zz", Over: Target{Kind: TargetColumn, ID: "done"}}, ErrTaskNotFound},
		{"unknown target task", MoveRequest{TaskID: "a", Over: Target{Kind: TargetTask, ID: "zz"}}, ErrTargetNotFound},
		{"unknown column", MoveRequest{TaskID: "a", Over: Target{Kind: TargetColumn, ID: "zz"}}, ErrColumnNotFound},
		{"bad kind", MoveRequest{TaskID: "a", Over: Target{Kind: "lane", ID: "done"}}, ErrInvalidTarget},
	}

	for _, tc := range cases {
		if _, err := Move(tasks, cols, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestMoveDoesNotMutateInput(t *testing.T) {
	tasks := testTasks()
	if _, err := Move(tasks, testColumns(), MoveRequest{TaskID: "a", Over: Target{Kind: TargetColumn, ID: "done"}}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if tasks[0].Status != "todo" || tasks[0].Position != 0 {
		t.Errorf("input slice was modified: %+v", tasks[0])
	}
}

func TestMoveRenumbersSparsePositions(t *testing.T) {
	tasks := []model.Task{
		testTask("a", "todo", 3),
		testTask("b", "todo", 10),
		testTask("c", "done", 7),
	}
	res, err := Move(tasks, testColumns(), MoveRequest{TaskID: "c", Over: Target{Kind: TargetTask, ID: "b"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	for i, id := range []string{"a", "c", "b"} {
		if p := find(res.Tasks, id).Position; p != i {
			t.Errorf("task %s: expected position %d, got %d", id, i, p)
		}
	}
}

func TestMoveOntoTaskOfDeletedColumn(t *testing.T) {
	// s points at a removed column, so the board shows it in the first lane
	tasks := []model.Task{
		testTask("a", "todo", 0),
		testTask("s", "gone", 0),
		testTask("d", "doing", 0),
	}
	res, err := Move(tasks, testColumns(), MoveRequest{TaskID: "d", Over: Target{Kind: TargetTask, ID: "s"}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := res.Moved.Status; got != "todo" {
		t.Errorf("moved status = %q, want todo", got)
	}
	if got := find(res.Tasks, "s").Status; got != "todo" {
		t.Errorf("stray task status = %q, want todo", got)
	}
	if got := laneOrder(res.Tasks, "todo"); !reflect.DeepEqual(got, []string{"a", "d", "s"}) {
		t.Errorf("todo lane = %v", got)
	}
}

func TestGroup(t *testing.T) {
	tasks := append(testTasks(), testTask("x", "deleted-column", 0))
	cols := testColumns()
	// shuffle column order to check sorting
	cols[0], cols[2] = cols[2], cols[0]

	lanes := Group(cols, tasks)
	if len(lanes) != 3 {
		t.Fatalf("expected 3 lanes, got %d", len(lanes))
	}
	if lanes[0].Column.ID != "todo" || lanes[2].Column.ID != "done" {
		t.Errorf("lanes not in column order: %s, %s", lanes[0].Column.ID, lanes[2].Column.ID)
	}
	if n := len(lanes[0].Tasks); n != 4 {
		t.Errorf("expected stray task in first lane, got %d tasks", n)
	}
	if lanes[2].Tasks == nil {
		t.Error("empty lane should hold an empty list")
	}
	if Group(nil, tasks) != nil {
		t.Error("no columns means no lanes")
	}
}

func TestFallbackColumn(t *testing.T) {
	cols := []model.Column{
		{ID: "custom", Position: 0},
		{ID: "todo", IsDefault: true, Position: 1},
		{ID: "done", IsDefault: true, Position: 2},
	}

	got, err := FallbackColumn(cols, "todo")
	if err != nil || got.ID != "done" {
		t.Errorf("expected first remaining default column, got %s (%v)", got.ID, err)
	}

	got, err = FallbackColumn(cols[:2], "todo")
	if err != nil || got.ID != "custom" {
		t.Errorf("expected first remaining column, got %s (%v)", got.ID, err)
	}

	if _, err := FallbackColumn(cols[:1], "custom"); !errors.Is(err, ErrLastColumn) {
		t.Errorf("expected ErrLastColumn, got %v", err)
	}
}

func TestNextPosition(t *testing.T) {
	tasks := testTasks()
	if got := NextPosition(tasks, "todo"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := NextPosition(tasks, "done"); got != 0 {
		t.Errorf("expected 0 for empty lane, got %d", got)
	}
}

func TestFilter(t *testing.T) {
	tasks := testTasks()
	tasks[1].ProjectID = ""
	tasks[3].Description = "Ship the RELEASE notes"

	if got := Apply(tasks, Filter{Kind: FilterStatus, Value: "doing"}); len(got) != 2 {
		t.Errorf("status filter: expected 2, got %d", len(got))
	}
	if got := Apply(tasks, Filter{Kind: FilterProject, Value: "p1"}); len(got) != 4 {
		t.Errorf("project filter: expected 4, got %d", len(got))
	}
	got := Apply(tasks, Filter{Kind: FilterAll, Query: "release"})
	if len(got) != 1 || got[0].ID != "d" {
		t.Errorf("search should match description case-insensitively, got %v", got)
	}
	if got := Apply(tasks, Filter{Kind: FilterStatus, Value: "todo", Query: "task a"}); len(got) != 1 {
		t.Errorf("filter and search combine, got %d", len(got))
	}
	if ParseFilterKind("bogus") != FilterAll {
		t.Error("unknown filter kind should default to all")
	}
}

func TestNewestFirst(t *testing.T) {
	tasks := testTasks()
	for i := range tasks {
		tasks[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}
	NewestFirst(tasks)
	if tasks[0].ID != "e" || tasks[4].ID != "a" {
		t.Errorf("unexpected order: %s ... %s", tasks[0].ID, tasks[4].ID)
	}
}
