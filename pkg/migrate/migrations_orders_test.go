package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUnifiedOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_unified_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no unified_orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS unified_orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_unified_orders_source_source_id",
		"CHECK (net_sales_cents IS NULL OR net_sales_cents >= 0)",
		"raw JSONB",
		"DROP TABLE IF EXISTS unified_orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSyncStateMigrationHasCompositeUniqueIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_platform_sync_states.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no platform_sync_states migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "ON platform_sync_states (event_source_id, platform)") {
		t.Errorf("missing composite unique index on (event_source_id, platform)")
	}
}
