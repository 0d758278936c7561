package postgres

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
)

type todosRepo struct {
	q querier
}

const todoColumns = `id, title, body, is_completed, user_id, created_at, updated_at, deleted_at`

func scanTodo(row rowScanner) (domain.Todo, error) {
	var (
		t         domain.Todo
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&t.ID, &t.Title, &t.Body, &t.IsCompleted, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &deletedAt,
	); err != nil {
		return domain.Todo{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.DeletedAt = mapNullTimePtr(deletedAt)
	return t, nil
}

func (r *todosRepo) CreateTodo(ctx context.Context, t domain.Todo) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Title, t.Body, t.IsCompleted, t.UserID, t.CreatedAt.UTC(), t.UpdatedAt.UTC(), mapOptionalTime(t.DeletedAt),
	)
	return mapConstraint(err)
}

func (r *todosRepo) GetTodoByID(ctx context.Context, id string) (domain.Todo, error) {
	t, err := scanTodo(r.q.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
	if err != nil {
		return domain.Todo{}, mapNotFound(err)
	}
	return t, nil
}

func (r *todosRepo) ListTodosByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Todo, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0, limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *todosRepo) UpdateTodo(ctx context.Context, t domain.Todo) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE todos SET title = $1, body = $2, is_completed = $3, updated_at = $4, deleted_at = $5 WHERE id = $6`,
		t.Title, t.Body, t.IsCompleted, t.UpdatedAt.UTC(), mapOptionalTime(t.DeletedAt), t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
