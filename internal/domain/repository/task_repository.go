package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskhive/internal/common"
	"taskhive/internal/domain/model"
)

// TaskFilter parameterizes the one list query both the owned and the
// all-users listings share. An empty OwnerID means no ownership filter.
type TaskFilter struct {
	OwnerID   string
	Search    string // case-insensitive substring on title
	SortField string // external field name, mapped through sortColumns
	SortAsc   bool
	Limit     int
	Offset    int
}

// sortColumns is the allow-list of sortable fields. Anything not present
// falls back to created_at; nothing caller-supplied ever reaches the ORDER BY
// clause verbatim.
var sortColumns = map[string]string{
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
	"title":     "t.title",
	"status":    "t.status",
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	FindOwned(ctx context.Context, ownerID, id string) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]model.Task, int, error)
	Update(ctx context.Context, task *model.Task) error
	// DeleteAny removes a task by id alone, with no ownership scoping.
	// Callers are responsible for gating access (admin-only routes).
	DeleteAny(ctx context.Context, id string) error
}

type pgTaskRepository struct {
	db *sql.DB
}

func NewPgTaskRepository(db *sql.DB) TaskRepository {
	return &pgTaskRepository{db: db}
}

const taskColumns = `t.id, t.title, t.description, t.status, t.created_by,
	       u.username, u.email, t.created_at, t.updated_at`

func (r *pgTaskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `INSERT INTO tasks (id, title, description, status, created_by)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.OwnerID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	return r.findOne(ctx, `WHERE t.id = $1`, id)
}

// FindOwned scopes the lookup to the owner; a task existing under a different
// owner is indistinguishable from one not existing at all.
func (r *pgTaskRepository) FindOwned(ctx context.Context, ownerID, id string) (*model.Task, error) {
	return r.findOne(ctx, `WHERE t.id = $1 AND t.created_by = $2`, id, ownerID)
}

func (r *pgTaskRepository) findOne(ctx context.Context, where string, args ...interface{}) (*model.Task, error) {
	query := `SELECT ` + taskColumns + `
	          FROM tasks t
	          JOIN users u ON t.created_by = u.id ` + where
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.OwnerID,
		&task.Owner.Username, &task.Owner.Email, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTaskRepository.findOne: %w", err)
	}
	return task, nil
}

// List returns one page of tasks plus the total matching count ignoring
// pagination. The count and the page are two independent reads; under
// concurrent writes they may reflect different snapshots.
func (r *pgTaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("t.created_by = $%d", argID))
		args = append(args, filter.OwnerID)
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("t.title ILIKE $%d", argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List count: %w", err)
	}

	orderCol, ok := sortColumns[filter.SortField]
	if !ok {
		orderCol = "t.created_at"
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s
	          FROM tasks t
	          JOIN users u ON t.created_by = u.id%s
	          ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		taskColumns, whereClause, orderCol, direction, argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List query: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.OwnerID,
			&t.Owner.Username, &t.Owner.Email, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgTaskRepository.List scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List rows.Err: %w", err)
	}

	return tasks, total, nil
}

func (r *pgTaskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `UPDATE tasks SET
	            title = $1, description = $2, status = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND created_by = $5
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.ID, task.OwnerID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgTaskRepository.Update: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) DeleteAny(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.DeleteAny: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgTaskRepository.DeleteAny rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
