package board

import "github.com/existflow/taskboard/internal/model"

// TargetKind says what a task was dropped on
type TargetKind string

const (
	TargetTask   TargetKind = "task"
	TargetColumn TargetKind = "column"
)

// Target is the element under the pointer when the drag ended
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// MoveRequest drops TaskID onto Over
type MoveRequest struct {
	TaskID string
	Over   Target
}

// Result of a move. Tasks is the full updated list; Changed holds only the
// tasks whose status or position differ from the input.
type Result struct {
	Tasks   []model.Task
	Changed []model.Task
	Moved   model.Task
}

// Move applies a drop to the board.
//
// A task target decides the destination column: the moved task lands at the
// target's index in the target's lane. Inside one lane this is an array
// move, so dragging down lands after the target and dragging up lands
// before it. A column target appends to that lane. Dropping a task on itself
// or on the lane it already sits in changes nothing.
//
// Only Status and Position are rewritten. Every lane that was touched is
// renumbered 0..n-1. Tasks of a column that no longer exists count as part
// of the first lane and take its status once that lane is touched.
func Move(tasks []model.Task, columns []model.Column, req MoveRequest) (Result, error) {
	list := append([]model.Task(nil), tasks...)

	active := indexOf(list, req.TaskID)
	if active < 0 {
		return Result{}, ErrTaskNotFound
	}

	layout := layoutIDs(list, columns)
	home := make(map[string]string, len(list))
	for col, ids := range layout {
		for _, id := range ids {
			home[id] = col
		}
	}

	src := home[req.TaskID]
	var dst string
	overID := ""

	switch req.Over.Kind {
	case TargetTask:
		if req.Over.ID == req.TaskID {
			return Result{Tasks: list, Moved: list[active]}, nil
		}
		if indexOf(list, req.Over.ID) < 0 {
			return Result{}, ErrTargetNotFound
		}
		dst = home[req.Over.ID]
		overID = req.Over.ID
	case TargetColumn:
		if !hasColumn(columns, req.Over.ID) {
			return Result{}, ErrColumnNotFound
		}
		dst = req.Over.ID
		if dst == src {
			return Result{Tasks: list, Moved: list[active]}, nil
		}
	default:
		return Result{}, ErrInvalidTarget
	}

	lanes := map[string][]string{}
	lanes[src] = layout[src]
	if dst != src {
		lanes[dst] = layout[dst]
	}

	if dst == src {
		ids := lanes[src]
		lanes[src] = arrayMove(ids, indexOfID(ids, req.TaskID), indexOfID(ids, overID))
	} else {
		lanes[src] = removeID(lanes[src], req.TaskID)
		ids := lanes[dst]
		at := len(ids)
		if overID != "" {
			at = indexOfID(ids, overID)
		}
		lanes[dst] = insertID(ids, at, req.TaskID)
	}

	original := make(map[string]model.Task, len(list))
	for _, t := range list {
		original[t.ID] = t
	}
	pos := make(map[string]int, len(list))
	for col, ids := range lanes {
		for i, id := range ids {
			pos[id] = i
			home[id] = col
		}
	}

	var changed []model.Task
	for i := range list {
		p, touched := pos[list[i].ID]
		if !touched {
			continue
		}
		list[i].Status = home[list[i].ID]
		list[i].Position = p
		before := original[list[i].ID]
		if before.Status != list[i].Status || before.Position != list[i].Position {
			changed = append(changed, list[i])
		}
	}

	return Result{Tasks: list, Changed: changed, Moved: list[indexOf(list, req.TaskID)]}, nil
}

func hasColumn(columns []model.Column, id string) bool {
	for _, c := range columns {
		if c.ID == id {
			return true
		}
	}
	return false
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// layoutIDs returns the task ids of every lane in board order, placing
// tasks of unknown columns the way Group does
func layoutIDs(tasks []model.Task, columns []model.Column) map[string][]string {
	out := map[string][]string{}
	lanes := Group(columns, tasks)
	if lanes == nil {
		for _, t := range tasks {
			if _, ok := out[t.Status]; !ok {
				out[t.Status] = laneIDs(tasks, t.Status)
			}
		}
		return out
	}
	for _, l := range lanes {
		ids := make([]string, len(l.Tasks))
		for i, t := range l.Tasks {
			ids[i] = t.ID
		}
		out[l.Column.ID] = ids
	}
	return out
}

func laneIDs(tasks []model.Task, columnID string) []string {
	lane := ColumnTasks(tasks, columnID)
	ids := make([]string, len(lane))
	for i, t := range lane {
		ids[i] = t.ID
	}
	return ids
}

func indexOfID(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertID(ids []string, at int, id string) []string {
	if at < 0 || at > len(ids) {
		at = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:at]...)
	out = append(out, id)
	return append(out, ids[at:]...)
}

func arrayMove(ids []string, from, to int) []string {
	if from < 0 || to < 0 || from == to {
		return ids
	}
	id := ids[from]
	return insertID(removeID(ids, id), to, id)
}
