package migrate_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stroytech/stroycrm-backend/pkg/migrate"
)

func TestCreateSQLMigrationPassesValidation(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Warehouse Reorder Levels!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if base := filepath.Base(path); !strings.HasSuffix(base, "_add_warehouse_reorder_levels.sql") {
		t.Fatalf("unexpected migration filename %q", base)
	}

	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate scaffolded migration: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := migrate.CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected error for name with no usable characters")
	}
}
