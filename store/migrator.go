package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/acodeaday/acodeaday/internal/version"
)

// Migration System Overview:
//
// Schema version is stored in system_setting under "schema_version".
//
// Migration flow:
// 1. If the database is uninitialized, apply migration/{driver}/LATEST.sql
//    and record the current schema version.
// 2. Otherwise, in prod mode, apply incremental migrations from
//    migration/{driver}/prod/{version}/NN__description.sql in order, for
//    every version greater than the recorded one.
//
// LATEST.sql always holds the full current schema so new installations skip
// the incremental path entirely.

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit is the split between the patch number and the
	// description in a migration file name, e.g. "01__add_memory_kb.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the full schema applied to fresh installations.
	LatestSchemaFileName = "LATEST.sql"

	schemaVersionSettingName = "schema_version"
)

// Migrate initializes or upgrades the database schema.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}

	currentSchemaVersion := version.GetSchemaVersion(version.GetCurrentVersion(s.profile.Mode))

	if !initialized {
		slog.Info("initializing database schema", slog.String("driver", s.profile.Driver))
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.setSchemaVersion(ctx, currentSchemaVersion); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
		return nil
	}

	if s.profile.Mode != "prod" {
		return nil
	}

	storedVersion, err := s.getSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	filePaths, err := s.pendingMigrationFiles(storedVersion)
	if err != nil {
		return err
	}
	for _, filePath := range filePaths {
		buf, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file %s", filePath)
		}
		slog.Info("applying migration", slog.String("file", filePath))
		if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", filePath)
		}
	}
	if len(filePaths) > 0 || storedVersion == "" {
		if err := s.setSchemaVersion(ctx, currentSchemaVersion); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
	}
	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema file %s", filePath)
	}
	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to execute schema file %s", filePath)
	}
	return nil
}

// pendingMigrationFiles returns migration files for versions newer than the
// stored schema version, sorted by version then file name.
func (s *Store) pendingMigrationFiles(storedVersion string) ([]string, error) {
	root := fmt.Sprintf("migration/%s/prod", s.profile.Driver)
	filePaths := []string{}
	err := fs.WalkDir(migrationFS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		parts := strings.Split(path, "/")
		if len(parts) < 2 {
			return nil
		}
		migrationVersion := parts[len(parts)-2]
		if storedVersion == "" || version.IsVersionGreaterThan(migrationVersion, storedVersion) {
			filePaths = append(filePaths, path)
		}
		return nil
	})
	if err != nil {
		// No prod migration directory means nothing to apply.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to walk migration directory")
	}
	sort.Strings(filePaths)
	return filePaths, nil
}

func (s *Store) getSchemaVersion(ctx context.Context) (string, error) {
	var value string
	err := s.driver.GetDB().QueryRowContext(ctx,
		"SELECT value FROM system_setting WHERE name = "+s.settingPlaceholder(1),
		schemaVersionSettingName,
	).Scan(&value)
	if err != nil {
		// Old installations may predate the system_setting row.
		return "", nil
	}
	return value, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, schemaVersion string) error {
	var stmt string
	if s.profile.Driver == "postgres" {
		stmt = "INSERT INTO system_setting (name, value) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value"
	} else {
		stmt = "INSERT INTO system_setting (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = excluded.value"
	}
	_, err := s.driver.GetDB().ExecContext(ctx, stmt, schemaVersionSettingName, schemaVersion)
	return err
}

func (s *Store) settingPlaceholder(n int) string {
	if s.profile.Driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
