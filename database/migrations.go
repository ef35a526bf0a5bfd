package database

import (
	"fmt"
)

func RunMigrations() error {
	usersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(usersTableSQL); err != nil {
		return fmt.Errorf("failed to run users migration: %w", err)
	}

	requestsTableSQL := `
	CREATE TABLE IF NOT EXISTS requests (
		id SERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		tmdb_id BIGINT NOT NULL,
		media_type VARCHAR(20) NOT NULL CHECK (media_type IN ('movie', 'tv', 'book')),
		title VARCHAR(512) NOT NULL,
		poster_path VARCHAR(255),
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'denied', 'fulfilled')),
		admin_note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_tmdb_id ON requests(tmdb_id);

	-- At most one active request per (user, title). The partial unique index
	-- makes the duplicate check atomic with the insert under concurrency.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_active_unique
		ON requests(user_id, tmdb_id, media_type)
		WHERE status IN ('pending', 'approved');
	`
	if _, err := DB.Exec(requestsTableSQL); err != nil {
		return fmt.Errorf("failed to run requests migration: %w", err)
	}

	historyTableSQL := `
	CREATE TABLE IF NOT EXISTS request_history (
		id SERIAL PRIMARY KEY,
		request_id INTEGER NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		old_status VARCHAR(20) NOT NULL,
		new_status VARCHAR(20) NOT NULL,
		changed_by VARCHAR(255) NOT NULL,
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(historyTableSQL); err != nil {
		return fmt.Errorf("failed to run request_history migration: %w", err)
	}

	backlogTableSQL := `
	CREATE TABLE IF NOT EXISTS backlog (
		id SERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		type VARCHAR(20) NOT NULL DEFAULT 'bug' CHECK (type IN ('bug', 'feature')),
		title VARCHAR(512) NOT NULL,
		description TEXT,
		priority VARCHAR(20) NOT NULL DEFAULT 'low'
			CHECK (priority IN ('low', 'medium', 'high', 'critical')),
		status VARCHAR(20) NOT NULL DEFAULT 'reported'
			CHECK (status IN ('reported', 'triaged', 'in_progress', 'ready_for_test', 'resolved', 'wont_fix')),
		admin_note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_backlog_status ON backlog(status);
	CREATE INDEX IF NOT EXISTS idx_backlog_type ON backlog(type);
	`
	if _, err := DB.Exec(backlogTableSQL); err != nil {
		return fmt.Errorf("failed to run backlog migration: %w", err)
	}

	return nil
}
