package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// isPostgresDialect reports whether the Bun handle speaks PostgreSQL DDL
func isPostgresDialect(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}

// runMigrations runs all Bun migrations
func runMigrations(ctx context.Context, db *bun.DB) error {
	isPostgres := isPostgresDialect(db)

	// Create a simple migrations tracking table
	var createTrackingSQL string
	if isPostgres {
		createTrackingSQL = `
			CREATE TABLE IF NOT EXISTS bun_schema_migrations (
				id SERIAL PRIMARY KEY,
				version TEXT NOT NULL UNIQUE,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`
	} else {
		createTrackingSQL = `
			CREATE TABLE IF NOT EXISTS bun_schema_migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				version TEXT NOT NULL UNIQUE,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`
	}
	_, err := db.ExecContext(ctx, createTrackingSQL)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Check which migrations have been applied
	type AppliedMigration struct {
		bun.BaseModel `bun:"table:bun_schema_migrations"`
		Version       string `bun:"version"`
	}
	var applied []AppliedMigration
	err = db.NewSelect().
		Model(&applied).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.Version] = true
	}

	// Run migrations in order
	migrations := []struct {
		version string
		name    string
		up      func(context.Context, *bun.DB) error
	}{
		{"001", "initial_schema", init001CreateDocumentsTable},
		{"002", "add_fulltext_search", init002AddFullTextSearch},
		{"003", "create_view_sessions", init003CreateViewSessions},
	}

	for _, m := range migrations {
		if appliedMap[m.version] {
			continue
		}

		Logger.Info("Running migration", "version", m.version, "name", m.name)
		if err := m.up(ctx, db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}

		// Mark as applied
		_, err = db.NewInsert().
			Model(&AppliedMigration{Version: m.version}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.version, err)
		}
	}

	Logger.Info("All migrations completed successfully")
	return nil
}

// Migration 001: Create initial schema (documents and server_config tables)
func init001CreateDocumentsTable(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 001: Create initial schema")

	isPostgres := isPostgresDialect(db)

	// Create documents table
	var createTableSQL string
	if isPostgres {
		createTableSQL = `
			CREATE TABLE IF NOT EXISTS documents (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				path TEXT NOT NULL UNIQUE,
				ingress_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				folder TEXT NOT NULL,
				hash TEXT NOT NULL,
				ulid TEXT NOT NULL UNIQUE,
				document_type TEXT NOT NULL,
				page_count INTEGER NOT NULL DEFAULT 0,
				page_sizes TEXT,
				full_text TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
	} else {
		createTableSQL = `
			CREATE TABLE IF NOT EXISTS documents (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				path TEXT NOT NULL UNIQUE,
				ingress_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				folder TEXT NOT NULL,
				hash TEXT NOT NULL,
				ulid TEXT NOT NULL UNIQUE,
				document_type TEXT NOT NULL,
				page_count INTEGER NOT NULL DEFAULT 0,
				page_sizes TEXT,
				full_text TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
	}

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	// Create indexes for documents
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash)",
		"CREATE INDEX IF NOT EXISTS idx_documents_ulid ON documents(ulid)",
		"CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents(folder)",
		"CREATE INDEX IF NOT EXISTS idx_documents_ingress_time ON documents(ingress_time DESC)",
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Create server_config table
	var createConfigSQL string
	var insertConfigSQL string
	if isPostgres {
		createConfigSQL = `
			CREATE TABLE IF NOT EXISTS server_config (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				listen_addr_ip TEXT DEFAULT '',
				listen_addr_port TEXT NOT NULL DEFAULT '8000',
				library_path TEXT NOT NULL DEFAULT '',
				upload_folder TEXT DEFAULT '',
				upload_folder_rel TEXT DEFAULT '',
				rescan_interval INTEGER NOT NULL DEFAULT 10,
				thumbnail_width INTEGER NOT NULL DEFAULT 320,
				max_render_scale DOUBLE PRECISION NOT NULL DEFAULT 4,
				use_reverse_proxy BOOLEAN NOT NULL DEFAULT false,
				base_url TEXT DEFAULT '',
				library_page_size INTEGER NOT NULL DEFAULT 24,
				server_api_url TEXT DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
		insertConfigSQL = `INSERT INTO server_config (id) VALUES (1) ON CONFLICT (id) DO NOTHING`
	} else {
		createConfigSQL = `
			CREATE TABLE IF NOT EXISTS server_config (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				listen_addr_ip TEXT DEFAULT '',
				listen_addr_port TEXT NOT NULL DEFAULT '8000',
				library_path TEXT NOT NULL DEFAULT '',
				upload_folder TEXT DEFAULT '',
				upload_folder_rel TEXT DEFAULT '',
				rescan_interval INTEGER NOT NULL DEFAULT 10,
				thumbnail_width INTEGER NOT NULL DEFAULT 320,
				max_render_scale REAL NOT NULL DEFAULT 4,
				use_reverse_proxy BOOLEAN NOT NULL DEFAULT 0,
				base_url TEXT DEFAULT '',
				library_page_size INTEGER NOT NULL DEFAULT 24,
				server_api_url TEXT DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
		insertConfigSQL = `INSERT OR IGNORE INTO server_config (id) VALUES (1)`
	}

	_, err = db.ExecContext(ctx, createConfigSQL)
	if err != nil {
		return fmt.Errorf("failed to create server_config table: %w", err)
	}

	// Insert default config row
	_, err = db.ExecContext(ctx, insertConfigSQL)
	if err != nil {
		return fmt.Errorf("failed to insert default config: %w", err)
	}

	Logger.Info("Migration 001 completed successfully")
	return nil
}

// Migration 002: Add full-text search support
func init002AddFullTextSearch(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 002: Add full-text search")

	isPostgres := isPostgresDialect(db)

	if isPostgres {
		// PostgreSQL: Add tsvector column and GIN index
		_, err := db.ExecContext(ctx, `
			ALTER TABLE documents ADD COLUMN IF NOT EXISTS full_text_search tsvector
		`)
		if err != nil {
			Logger.Warn("Could not add full_text_search column (might already exist)", "error", err)
		}

		// Create GIN index for fast full-text searching
		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_documents_full_text_search ON documents USING GIN(full_text_search)
		`)
		if err != nil {
			return fmt.Errorf("failed to create full_text_search GIN index: %w", err)
		}

		// Create function to update search vector
		_, err = db.ExecContext(ctx, `
			CREATE OR REPLACE FUNCTION update_full_text_search()
			RETURNS TRIGGER AS $$
			BEGIN
				NEW.full_text_search = to_tsvector('english', COALESCE(NEW.full_text, '') || ' ' || COALESCE(NEW.name, ''));
				RETURN NEW;
			END;
			$$ LANGUAGE plpgsql
		`)
		if err != nil {
			return fmt.Errorf("failed to create update_full_text_search function: %w", err)
		}

		// Create trigger to update search vector on insert/update
		_, err = db.ExecContext(ctx, `
			DROP TRIGGER IF EXISTS trigger_update_full_text_search ON documents
		`)
		if err != nil {
			Logger.Warn("Could not drop trigger (might not exist)", "error", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE TRIGGER trigger_update_full_text_search
				BEFORE INSERT OR UPDATE OF full_text, name ON documents
				FOR EACH ROW
				EXECUTE FUNCTION update_full_text_search()
		`)
		if err != nil {
			return fmt.Errorf("failed to create trigger: %w", err)
		}

		// Update existing documents to populate the search vector
		_, err = db.ExecContext(ctx, `
			UPDATE documents
			SET full_text_search = to_tsvector('english', COALESCE(full_text, '') || ' ' || COALESCE(name, ''))
		`)
		if err != nil {
			Logger.Warn("Could not update existing documents (table might be empty)", "error", err)
		}
	} else {
		// SQLite: Add a simple full_text_search column for LIKE queries
		_, err := db.ExecContext(ctx, `
			ALTER TABLE documents ADD COLUMN full_text_search TEXT
		`)
		if err != nil {
			// Column might already exist, ignore error
			Logger.Warn("Could not add full_text_search column (might already exist)", "error", err)
		}

		// Create index for faster LIKE queries
		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_documents_full_text_search ON documents(full_text_search)
		`)
		if err != nil {
			return fmt.Errorf("failed to create full_text_search index: %w", err)
		}
	}

	Logger.Info("Migration 002 completed successfully")
	return nil
}

// Migration 003: Create view_sessions table
func init003CreateViewSessions(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 003: Create view_sessions table")

	var createTableSQL string
	if isPostgresDialect(db) {
		createTableSQL = `
			CREATE TABLE IF NOT EXISTS view_sessions (
				document_ulid TEXT PRIMARY KEY,
				page INTEGER NOT NULL DEFAULT 0,
				rotation INTEGER NOT NULL DEFAULT 0,
				scale DOUBLE PRECISION NOT NULL DEFAULT 1,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
	} else {
		createTableSQL = `
			CREATE TABLE IF NOT EXISTS view_sessions (
				document_ulid TEXT PRIMARY KEY,
				page INTEGER NOT NULL DEFAULT 0,
				rotation INTEGER NOT NULL DEFAULT 0,
				scale REAL NOT NULL DEFAULT 1,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`
	}

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create view_sessions table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_view_sessions_updated ON view_sessions(updated_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create view_sessions index: %w", err)
	}

	Logger.Info("Migration 003 completed successfully")
	return nil
}
