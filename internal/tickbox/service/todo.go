package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/sanitize"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/google/uuid"
)

// Reasons reported when the ownership guard refuses a request.
const (
	DenyNoCaller = "no_caller"
	DenyBadID    = "bad_id"
	DenyNotFound = "not_found"
	DenyNotOwner = "not_owner"
)

type TodoService struct {
	Store   store.Store
	Metrics *metrics.Collector
	Now     func() time.Time
}

func (s *TodoService) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	// Postgres keeps microseconds; truncating keeps both drivers in step.
	return now.UTC().Truncate(time.Microsecond)
}

// ParseTodoID validates raw as a UUID and returns its canonical form.
func ParseTodoID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed todo id", ErrBadRequest)
	}
	return id.String(), nil
}

func validateTodoText(title, body string) error {
	verr := &ValidationError{}
	if sanitize.Blank(title) {
		verr.add("title", CodeRequired, "The Title field is required.")
	}
	if sanitize.Blank(body) {
		verr.add("body", CodeRequired, "The Body field is required.")
	}
	return verr.err()
}

// Create adds a todo owned by callerID.
func (s *TodoService) Create(ctx context.Context, callerID, title, body string) (domain.Todo, error) {
	if callerID == "" {
		return domain.Todo{}, ErrUnauthorized
	}

	if err := validateTodoText(title, body); err != nil {
		return domain.Todo{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Todo{}, err
	}

	now := s.now()
	t := domain.Todo{
		ID:        id.String(),
		Title:     title,
		Body:      body,
		UserID:    callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Todos().CreateTodo(ctx, t); err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	slogx.FromContext(ctx).Debug("todo created", "todo_id", t.ID)
	return t, nil
}

// List returns one page of the caller's live todos. Pages start at 1;
// anything lower is treated as the first page.
func (s *TodoService) List(ctx context.Context, callerID string, page int) ([]domain.Todo, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	// Past any offset the database can address: nothing to list.
	if page-1 > math.MaxInt/domain.TodoPageSize {
		return []domain.Todo{}, nil
	}

	return s.Store.Todos().ListTodosByOwner(ctx, callerID, domain.TodoPageSize, (page-1)*domain.TodoPageSize)
}

// Get looks a todo up by id, soft deleted or not.
func (s *TodoService) Get(ctx context.Context, id string) (domain.Todo, error) {
	t, err := s.Store.Todos().GetTodoByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Todo{}, ErrNotFound
	}
	return t, err
}

// Authorize decides whether callerID may mutate the todo named by rawID.
// A missing todo is reported as ErrUnauthorized so ids of other users'
// todos cannot be probed.
func (s *TodoService) Authorize(ctx context.Context, callerID, rawID string) error {
	reason, err := s.authorize(ctx, callerID, rawID)
	if reason != "" {
		s.Metrics.RecordAuthzDenial(reason)
		slogx.FromContext(ctx).Info("todo access denied", "reason", reason, "todo_id", rawID)
	}
	return err
}

func (s *TodoService) authorize(ctx context.Context, callerID, rawID string) (string, error) {
	if callerID == "" {
		return DenyNoCaller, ErrUnauthorized
	}

	id, err := ParseTodoID(rawID)
	if err != nil {
		return DenyBadID, err
	}

	t, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DenyNotFound, ErrUnauthorized
	}
	if err != nil {
		return "", err
	}

	if t.UserID != callerID {
		return DenyNotOwner, ErrUnauthorized
	}
	return "", nil
}

// mutate loads the todo inside a transaction, checks ownership again and
// stores whatever fn changed.
func (s *TodoService) mutate(ctx context.Context, callerID, rawID string, fn func(*domain.Todo)) (domain.Todo, error) {
	if callerID == "" {
		return domain.Todo{}, ErrUnauthorized
	}
	id, err := ParseTodoID(rawID)
	if err != nil {
		return domain.Todo{}, err
	}

	var out domain.Todo
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.Todos().GetTodoByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if t.UserID != callerID {
			return ErrUnauthorized
		}

		fn(&t)
		if err := tx.Todos().UpdateTodo(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// Update overwrites title, body and completion of a todo the caller owns.
func (s *TodoService) Update(ctx context.Context, callerID, id string, upd domain.TodoUpdate) (domain.Todo, error) {
	if err := validateTodoText(upd.Title, upd.Body); err != nil {
		return domain.Todo{}, err
	}

	now := s.now()
	return s.mutate(ctx, callerID, id, func(t *domain.Todo) {
		t.Title = upd.Title
		t.Body = upd.Body
		t.IsCompleted = upd.IsCompleted
		t.UpdatedAt = now
	})
}

// Delete soft deletes a todo the caller owns.
func (s *TodoService) Delete(ctx context.Context, callerID, id string) error {
	now := s.now()
	_, err := s.mutate(ctx, callerID, id, func(t *domain.Todo) {
		t.DeletedAt = &now
	})
	return err
}
