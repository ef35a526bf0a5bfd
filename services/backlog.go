package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"requestarr/apperr"
	"requestarr/database"
	"requestarr/metrics"
	"requestarr/models"
)

type CreateBacklogInput struct {
	Type        models.BacklogType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
}

// UpdateBacklogInput carries an admin mutation. Nil fields are left
// untouched; status changes are validated against the workflow, priority
// changes are free within the enum.
type UpdateBacklogInput struct {
	Status    *models.BacklogStatus   `json:"status"`
	Priority  *models.BacklogPriority `json:"priority"`
	AdminNote *string                 `json:"admin_note"`
}

const backlogColumns = "b.id, b.user_id, u.username, b.type, b.title, b.description, b.priority, b.status, b.admin_note, b.created_at, b.updated_at"

func scanBacklogItem(scan func(dest ...any) error) (*models.BacklogItem, error) {
	var item models.BacklogItem
	var description, adminNote sql.NullString
	err := scan(
		&item.ID,
		&item.UserID,
		&item.Username,
		&item.Type,
		&item.Title,
		&description,
		&item.Priority,
		&item.Status,
		&adminNote,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.AdminNote = adminNote.String
	return &item, nil
}

// CreateBacklogItem records a bug or feature report. Any authenticated user
// may report; there is no duplicate check.
func CreateBacklogItem(ctx context.Context, reporter *models.User, in CreateBacklogInput) (*models.BacklogItem, error) {
	if in.Type == "" {
		in.Type = models.BacklogBug
	}
	if !models.ValidBacklogType(in.Type) {
		return nil, apperr.ErrBadRequest.WithDetail("type must be 'bug' or 'feature'")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.ErrBadRequest.WithDetail("title is required")
	}

	var description sql.NullString
	if in.Description != "" {
		description = sql.NullString{String: in.Description, Valid: true}
	}

	var id int
	err := database.DB.QueryRowContext(ctx, `
		INSERT INTO backlog (user_id, type, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		reporter.ID, in.Type, in.Title, description,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create backlog item: %w", err)
	}

	slog.Info("Backlog item created",
		"backlog_id", id, "user_id", reporter.ID, "type", in.Type, "title", in.Title)

	return GetBacklogItem(ctx, id)
}

func GetBacklogItem(ctx context.Context, id int) (*models.BacklogItem, error) {
	row := database.DB.QueryRowContext(ctx, `
		SELECT `+backlogColumns+`
		FROM backlog b JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`, id)

	item, err := scanBacklogItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("backlog item not found")
		}
		return nil, fmt.Errorf("failed to get backlog item: %w", err)
	}
	return item, nil
}

// ValidateBacklogUpdate applies the actor and field rules for an update
// without touching the store.
func ValidateBacklogUpdate(actor *models.User, current models.BacklogStatus, in UpdateBacklogInput) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("admin role required")
	}
	if in.Status != nil {
		if !models.ValidBacklogStatus(*in.Status) {
			return apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown status %q", *in.Status))
		}
		if !models.ValidBacklogTransition(current, *in.Status) {
			return apperr.ErrInvalidTransition.WithDetail(
				fmt.Sprintf("cannot move backlog item from %s to %s", current, *in.Status))
		}
	}
	if in.Priority != nil && !models.ValidBacklogPriority(*in.Priority) {
		return apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown priority %q", *in.Priority))
	}
	return nil
}

// UpdateBacklogItem applies an admin mutation. The row is locked so
// concurrent status changes on the same item serialize.
func UpdateBacklogItem(ctx context.Context, id int, actor *models.User, in UpdateBacklogInput) (*models.BacklogItem, error) {
	if in.Status == nil && in.Priority == nil && in.AdminNote == nil {
		return nil, apperr.ErrBadRequest.WithDetail("nothing to update")
	}

	tx, err := database.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.BacklogStatus
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM backlog WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("backlog item not found")
		}
		return nil, fmt.Errorf("failed to lock backlog item: %w", err)
	}

	if err := ValidateBacklogUpdate(actor, current, in); err != nil {
		return nil, err
	}

	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if in.Status != nil {
		args = append(args, *in.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if in.Priority != nil {
		args = append(args, *in.Priority)
		set = append(set, fmt.Sprintf("priority = $%d", len(args)))
	}
	if in.AdminNote != nil {
		args = append(args, *in.AdminNote)
		set = append(set, fmt.Sprintf("admin_note = $%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE backlog SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update backlog item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit backlog update: %w", err)
	}

	metrics.BacklogUpdates.Inc()
	if in.Status != nil {
		slog.Info("Backlog item transitioned",
			"backlog_id", id, "from", current, "to", *in.Status, "actor", actor.Username)
	}

	return GetBacklogItem(ctx, id)
}

type BacklogFilter struct {
	Status models.BacklogStatus
	Type   models.BacklogType
	Page   int
	Limit  int
}

func ListBacklogItems(ctx context.Context, f BacklogFilter) ([]models.BacklogItem, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	if f.Status != "" {
		if !models.ValidBacklogStatus(f.Status) {
			return nil, 0, apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown status %q", f.Status))
		}
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	if f.Type != "" {
		if !models.ValidBacklogType(f.Type) {
			return nil, 0, apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown type %q", f.Type))
		}
		args = append(args, f.Type)
		where += fmt.Sprintf(" AND b.type = $%d", len(args))
	}

	var total int
	if err := database.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM backlog b "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count backlog items: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT `+backlogColumns+`
		FROM backlog b JOIN users u ON b.user_id = u.id
		%s
		ORDER BY b.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := database.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list backlog items: %w", err)
	}
	defer rows.Close()

	items := []models.BacklogItem{}
	for rows.Next() {
		item, err := scanBacklogItem(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// DeleteBacklogItem removes an item; admin only.
func DeleteBacklogItem(ctx context.Context, id int, actor *models.User) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("admin role required")
	}

	result, err := database.DB.ExecContext(ctx, "DELETE FROM backlog WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete backlog item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.ErrNotFound.WithDetail("backlog item not found")
	}

	slog.Info("Backlog item deleted", "backlog_id", id, "actor", actor.Username)
	return nil
}

// GetBacklogStats returns counts by status and by type.
func GetBacklogStats(ctx context.Context) (models.BacklogStats, error) {
	stats := models.BacklogStats{
		ByStatus: make(map[models.BacklogStatus]int),
		ByType:   make(map[models.BacklogType]int),
	}

	rows, err := database.DB.QueryContext(ctx,
		"SELECT status, type, COUNT(*) FROM backlog GROUP BY status, type")
	if err != nil {
		return models.BacklogStats{}, fmt.Errorf("failed to compute backlog stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.BacklogStatus
		var itemType models.BacklogType
		var count int
		if err := rows.Scan(&status, &itemType, &count); err != nil {
			return models.BacklogStats{}, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByType[itemType] += count
	}
	return stats, rows.Err()
}
