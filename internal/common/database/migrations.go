// internal/common/database/migrations.go
// Schema bootstrap run at startup

package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		phone VARCHAR(20) UNIQUE,
		password_hash VARCHAR(255),
		user_type VARCHAR(20) NOT NULL DEFAULT 'customer',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		auth_provider VARCHAR(20) NOT NULL DEFAULT 'local',
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until TIMESTAMPTZ,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		refresh_token TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS password_resets (
		token VARCHAR(128) PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		date_of_birth DATE,
		gender VARCHAR(20) NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		interests JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_images (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_url TEXT NOT NULL,
		is_profile_picture BOOLEAN NOT NULL DEFAULT FALSE,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS plans (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price_male NUMERIC(10,2) NOT NULL,
		price_female NUMERIC(10,2) NOT NULL,
		duration_days INTEGER NOT NULL DEFAULT 30,
		features JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plan_id BIGINT REFERENCES plans(id) ON DELETE SET NULL,
		subscription_type VARCHAR(50) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		payment_method VARCHAR(50),
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		transaction_id VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS features_access (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		feature VARCHAR(100) NOT NULL,
		access_start TIMESTAMPTZ NOT NULL,
		access_end TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, feature)
	)`,

	`CREATE TABLE IF NOT EXISTS matching (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		matched_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		compatibility_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_liked BOOLEAN NOT NULL DEFAULT FALSE,
		is_mutual BOOLEAN NOT NULL DEFAULT FALSE,
		matched_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, matched_user_id),
		CHECK (user_id <> matched_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS mpesa_requests (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		purpose VARCHAR(20) NOT NULL,
		plan_id BIGINT REFERENCES plans(id) ON DELETE SET NULL,
		amount NUMERIC(10,2) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		external_reference VARCHAR(100) NOT NULL,
		checkout_request_id VARCHAR(100) NOT NULL UNIQUE,
		success BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(50) NOT NULL DEFAULT '',
		reference VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS mpesa_payments (
		id BIGSERIAL PRIMARY KEY,
		amount NUMERIC(10,2) NOT NULL,
		checkout_request_id VARCHAR(100) NOT NULL UNIQUE,
		external_reference VARCHAR(100) NOT NULL DEFAULT '',
		merchant_request_id VARCHAR(100) NOT NULL DEFAULT '',
		mpesa_receipt_number VARCHAR(50) NOT NULL DEFAULT '',
		phone VARCHAR(20) NOT NULL DEFAULT '',
		result_code INTEGER NOT NULL,
		result_desc VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(50) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS superlikes_record (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
		date_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS superlike_withdrawals (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL CHECK (amount > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS superlike_topups (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL CHECK (amount > 0),
		price NUMERIC(10,2) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		checkout_request_id VARCHAR(100) NOT NULL UNIQUE,
		external_reference VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_password_resets_expires ON password_resets(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_user_images_user_id ON user_images(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id, end_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_features_access_end ON features_access(access_end) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_matching_matched_user ON matching(matched_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_mpesa_requests_user ON mpesa_requests(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_user_status ON superlike_withdrawals(user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_topups_pending ON superlike_topups(created_at) WHERE status = 'pending'`,
}

// Migrate creates any missing tables and indexes. Every statement is
// idempotent so it runs on each startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d/%d failed: %w", i+1, len(migrations), err)
		}
	}
	log.Printf("   ✅ %d migrations applied", len(migrations))
	return nil
}
