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

// LibraryChecker reports whether a title is already present in the media
// server library.
type LibraryChecker interface {
	InLibrary(ctx context.Context, title string, tmdbID int64, mediaType models.MediaType) (bool, error)
}

// SystemActor is the actor used by background jobs that apply transitions
// on behalf of the system rather than a logged-in admin.
var SystemActor = &models.User{ID: "system", Username: "system", Role: models.RoleAdmin}

type CreateRequestInput struct {
	TMDBID     int64            `json:"tmdb_id"`
	MediaType  models.MediaType `json:"media_type"`
	Title      string           `json:"title"`
	PosterPath string           `json:"poster_path"`
}

const requestColumns = "r.id, r.user_id, u.username, r.tmdb_id, r.media_type, r.title, r.poster_path, r.status, r.admin_note, r.created_at, r.updated_at"

func scanRequest(scan func(dest ...any) error) (*models.Request, error) {
	var req models.Request
	var posterPath, adminNote sql.NullString
	err := scan(
		&req.ID,
		&req.UserID,
		&req.Username,
		&req.TMDBID,
		&req.MediaType,
		&req.Title,
		&posterPath,
		&req.Status,
		&adminNote,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.PosterPath = posterPath.String
	req.AdminNote = adminNote.String
	return &req, nil
}

// CreateRequest creates a pending request for the requester. It fails if an
// active request for the same title already exists or the title is already
// in the library. The duplicate check is enforced by a partial unique index,
// so two concurrent creates cannot both succeed.
func CreateRequest(ctx context.Context, library LibraryChecker, requester *models.User, in CreateRequestInput) (*models.Request, error) {
	if !models.ValidMediaType(in.MediaType) {
		return nil, apperr.ErrBadRequest.WithDetail("media_type must be 'movie', 'tv' or 'book'")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.ErrBadRequest.WithDetail("title is required")
	}

	inLibrary, err := library.InLibrary(ctx, in.Title, in.TMDBID, in.MediaType)
	if err != nil {
		// Library check is advisory; the media server being down must not
		// block new requests.
		slog.Warn("Library check failed, proceeding with request",
			"error", err, "title", in.Title, "tmdb_id", in.TMDBID)
	} else if inLibrary {
		return nil, apperr.ErrAlreadyInLibrary
	}

	var poster sql.NullString
	if in.PosterPath != "" {
		poster = sql.NullString{String: in.PosterPath, Valid: true}
	}

	var id int
	err = database.DB.QueryRowContext(ctx, `
		INSERT INTO requests (user_id, tmdb_id, media_type, title, poster_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		requester.ID, in.TMDBID, in.MediaType, in.Title, poster,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err, "idx_requests_active_unique") {
			return nil, apperr.ErrDuplicateActiveRequest
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	metrics.RequestsCreated.Inc()
	slog.Info("Request created",
		"request_id", id, "user_id", requester.ID, "title", in.Title, "media_type", in.MediaType)

	return GetRequest(ctx, id)
}

func GetRequest(ctx context.Context, id int) (*models.Request, error) {
	row := database.DB.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests r JOIN users u ON r.user_id = u.id
		WHERE r.id = $1`, id)

	req, err := scanRequest(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("request not found")
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ValidateRequestTransition applies the actor and state-machine rules for a
// transition without touching the store.
func ValidateRequestTransition(actor *models.User, current, target models.RequestStatus) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("admin role required")
	}
	if !models.ValidRequestStatus(target) {
		return apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown status %q", target))
	}
	if !models.ValidRequestTransition(current, target) {
		return apperr.ErrInvalidTransition.WithDetail(
			fmt.Sprintf("cannot move request from %s to %s", current, target))
	}
	return nil
}

// TransitionRequest moves a request to target. The row is locked for the
// duration of the transaction so concurrent transitions on the same request
// serialize; a transition computed against a stale status is rejected. A nil
// note leaves the stored note unchanged; a non-nil note overwrites it.
func TransitionRequest(ctx context.Context, id int, actor *models.User, target models.RequestStatus, note *string) (*models.Request, error) {
	tx, err := database.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.RequestStatus
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM requests WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("request not found")
		}
		return nil, fmt.Errorf("failed to lock request: %w", err)
	}

	if err := ValidateRequestTransition(actor, current, target); err != nil {
		return nil, err
	}

	if note != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE requests SET status = $1, admin_note = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3",
			target, *note, id)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE requests SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
			target, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	var historyNote sql.NullString
	if note != nil {
		historyNote = sql.NullString{String: *note, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO request_history (request_id, old_status, new_status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5)`,
		id, current, target, actor.Username, historyNote)
	if err != nil {
		return nil, fmt.Errorf("failed to record request history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	metrics.RequestTransitions.WithLabelValues(string(target)).Inc()
	slog.Info("Request transitioned",
		"request_id", id, "from", current, "to", target, "actor", actor.Username)

	return GetRequest(ctx, id)
}

type RequestFilter struct {
	UserID string // empty: all users (admin listing)
	Status models.RequestStatus
	Page   int
	Limit  int
}

// ListRequests returns one page of requests ordered newest first, plus the
// total count matching the filter.
func ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}
	if f.Status != "" {
		if !models.ValidRequestStatus(f.Status) {
			return nil, 0, apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown status %q", f.Status))
		}
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM requests r " + where
	if err := database.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM requests r JOIN users u ON r.user_id = u.id
		%s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := database.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *req)
	}
	return requests, total, rows.Err()
}

// DeleteRequest removes a request. Permitted for the original requester or
// an admin.
func DeleteRequest(ctx context.Context, id int, actor *models.User) error {
	req, err := GetRequest(ctx, id)
	if err != nil {
		return err
	}

	if req.UserID != actor.ID && !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("only the requester or an admin can delete a request")
	}

	if _, err := database.DB.ExecContext(ctx, "DELETE FROM requests WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	slog.Info("Request deleted", "request_id", id, "actor", actor.Username)
	return nil
}

// GetRequestStats recomputes aggregate counts on demand.
func GetRequestStats(ctx context.Context) (models.RequestStats, error) {
	var stats models.RequestStats
	err := database.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'denied'),
			COUNT(*) FILTER (WHERE status = 'fulfilled'),
			COUNT(DISTINCT user_id)
		FROM requests`).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Approved,
		&stats.Denied,
		&stats.Fulfilled,
		&stats.UniqueUsers,
	)
	if err != nil {
		return models.RequestStats{}, fmt.Errorf("failed to compute request stats: %w", err)
	}
	return stats, nil
}

// ActiveRequestStatus probes for an active request matching the caller and
// title. Used to annotate catalog search results.
func ActiveRequestStatus(ctx context.Context, userID string, tmdbID int64, mediaType models.MediaType) (models.RequestStatus, bool, error) {
	var status models.RequestStatus
	err := database.DB.QueryRowContext(ctx, `
		SELECT status FROM requests
		WHERE user_id = $1 AND tmdb_id = $2 AND media_type = $3
		  AND status IN ('pending', 'approved')`,
		userID, tmdbID, mediaType).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to probe request status: %w", err)
	}
	return status, true, nil
}

// ListOpenRequests returns all pending and approved requests, for the
// background auto-fulfill check.
func ListOpenRequests(ctx context.Context) ([]models.Request, error) {
	rows, err := database.DB.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests r JOIN users u ON r.user_id = u.id
		WHERE r.status IN ('pending', 'approved')
		ORDER BY r.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}
