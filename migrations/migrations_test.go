package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestTrees_ReturnsPostgresAndSQLite(t *testing.T) {
	trees, err := Trees()
	if err != nil {
		t.Fatalf("trees: %v", err)
	}
	if len(trees) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(trees))
	}

	seen := map[string]bool{}
	for _, tree := range trees {
		seen[tree.Dialect] = true
		ups, globErr := fs.Glob(tree.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", tree.Dialect, globErr)
		}
		if len(ups) == 0 {
			t.Fatalf("expected %s migration files, got none", tree.Dialect)
		}
		for _, up := range ups {
			down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
			if _, statErr := fs.Stat(tree.FS, down); statErr != nil {
				t.Fatalf("%s migration %s has no down file: %v", tree.Dialect, up, statErr)
			}
		}
	}
	if !seen[DialectPostgres] || !seen[DialectSQLite] {
		t.Fatalf("expected both dialects, got %+v", seen)
	}
}

func TestApply_FiltersRequestedDialects(t *testing.T) {
	var calls []string
	err := Apply(context.Background(), func(_ context.Context, tree Tree) error {
		calls = append(calls, tree.Dialect)
		return nil
	}, DialectSQLite)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected a single sqlite application, got %v", calls)
	}
}

func TestApply_DefaultsToAllDialects(t *testing.T) {
	var calls []string
	err := Apply(context.Background(), func(_ context.Context, tree Tree) error {
		calls = append(calls, tree.Dialect)
		return nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected both dialects applied, got %v", calls)
	}
}

func TestApply_RejectsUnknownDialectAndNilFunc(t *testing.T) {
	err := Apply(context.Background(), func(context.Context, Tree) error { return nil }, "oracle")
	if err == nil || !strings.Contains(err.Error(), "unknown dialect") {
		t.Fatalf("expected unknown dialect error, got %v", err)
	}
	if err := Apply(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil apply function")
	}
}

func TestApply_PropagatesCallbackFailure(t *testing.T) {
	boom := errors.New("boom")
	err := Apply(context.Background(), func(context.Context, Tree) error {
		return boom
	}, DialectSQLite)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped callback error, got %v", err)
	}
}

func TestSQLiteMigrations_ApplyCleanly(t *testing.T) {
	trees, err := Trees()
	if err != nil {
		t.Fatalf("trees: %v", err)
	}
	var sqliteFS fs.FS
	for _, tree := range trees {
		if tree.Dialect == DialectSQLite {
			sqliteFS = tree.FS
		}
	}
	if sqliteFS == nil {
		t.Fatalf("expected sqlite tree")
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ups, err := fs.Glob(sqliteFS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob up migrations: %v", err)
	}
	for _, name := range ups {
		content, readErr := fs.ReadFile(sqliteFS, name)
		if readErr != nil {
			t.Fatalf("read %s: %v", name, readErr)
		}
		if _, execErr := db.Exec(string(content)); execErr != nil {
			t.Fatalf("apply %s: %v", name, execErr)
		}
	}

	for _, table := range []string{"authflow_consumers", "authflow_tokens"} {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
		if err := db.QueryRow(query, table).Scan(&name); err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
		if !strings.EqualFold(name, table) {
			t.Fatalf("expected table %s, got %s", table, name)
		}
	}
}
