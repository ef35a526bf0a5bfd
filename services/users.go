package services

import (
	"context"
	"database/sql"
	"fmt"

	"requestarr/apperr"
	"requestarr/database"
	"requestarr/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = "id, username, email, password_hash, role, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser creates a user on first successful credential setup. The
// insert is idempotence-safe: an existing username is reported as a conflict
// and the stored user (including its role) is left untouched.
func RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	row := database.DB.QueryRowContext(ctx,
		"INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING "+userColumns,
		uuid.NewString(), username, email, string(hashedPassword),
	)

	user, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, apperr.ErrConflict.WithDetail("username or email already registered")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	return user, nil
}

func AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.ErrUnauthorized.WithDetail("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthorized.WithDetail("invalid credentials")
	}

	return user, nil
}

func GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := database.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := database.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

// ValidateRoleChange applies the authorization rules for SetRole without
// touching the store: the actor must be an admin, the role must be known,
// and admins cannot change their own role.
func ValidateRoleChange(actor *models.User, targetUserID string, role models.Role) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden.WithDetail("admin role required")
	}
	if !models.ValidRole(role) {
		return apperr.ErrBadRequest.WithDetail("role must be 'user' or 'admin'")
	}
	if actor.ID == targetUserID {
		return apperr.ErrForbidden.WithDetail("cannot change your own role")
	}
	return nil
}

// SetRole overwrites the target user's role. Setting the same role twice
// succeeds and still bumps updated_at.
func SetRole(ctx context.Context, actor *models.User, targetUserID string, role models.Role) (*models.User, error) {
	if err := ValidateRoleChange(actor, targetUserID, role); err != nil {
		return nil, err
	}

	row := database.DB.QueryRowContext(ctx,
		"UPDATE users SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING "+userColumns,
		role, targetUserID,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound.WithDetail("user not found")
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return user, nil
}

// ListUsers returns all known users ordered by first login.
func ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := database.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
