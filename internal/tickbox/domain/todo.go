package domain

import "time"

// TodoPageSize is the fixed number of todos per listing page.
const TodoPageSize = 5

// Todo is a single item on a user's list. UserID is set at creation and
// never changes. A non-nil DeletedAt hides the todo from listings.
type Todo struct {
	ID          string
	Title       string
	Body        string
	IsCompleted bool
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the todo has been soft deleted.
func (t Todo) IsDeleted() bool { return t.DeletedAt != nil }

// TodoUpdate carries the fields a caller may overwrite.
type TodoUpdate struct {
	Title       string
	Body        string
	IsCompleted bool
}
