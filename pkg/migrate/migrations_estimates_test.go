package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stroytech/stroycrm-backend/pkg/migrate"
)

func TestEstimatesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_estimates.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no estimates migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS estimates",
		"profit_margin numeric(5,2) NOT NULL DEFAULT 20.00",
		"overhead_costs numeric(5,2) NOT NULL DEFAULT 15.00",
		"vat_rate numeric(5,2) NOT NULL DEFAULT 20.00",
		"CREATE TABLE IF NOT EXISTS estimate_items",
		"REFERENCES estimates(id) ON DELETE CASCADE",
		"CHECK (quantity >= 0)",
		"CHECK (unit_price >= 0)",
		"DROP TABLE IF EXISTS estimate_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
