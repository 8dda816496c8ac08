// Package migrations splits the embedded go-authflow schema into per-dialect
// filesystems and feeds them to a persistence client.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	authflow "github.com/goliatone/go-authflow"
)

// Dialects the embedded schema ships. The postgres files sit at the tree
// root with the sqlite alternatives in a subdirectory.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const treeRoot = "data/sql/migrations"

// Tree is one dialect's migration filesystem, rooted at its *.sql files.
type Tree struct {
	Dialect string
	FS      fs.FS
}

// ApplyFunc receives one dialect tree, typically forwarding its FS to
// persistence.Client.RegisterSQLMigrations.
type ApplyFunc func(ctx context.Context, tree Tree) error

// Trees returns the embedded migration filesystems, one per dialect, after
// checking every up migration carries its down counterpart.
func Trees() ([]Tree, error) {
	base, err := fs.Sub(authflow.GetCoreMigrationsFS(), treeRoot)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", treeRoot, err)
	}
	sqlite, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite subtree: %w", err)
	}

	trees := []Tree{
		{Dialect: DialectPostgres, FS: base},
		{Dialect: DialectSQLite, FS: sqlite},
	}
	for _, tree := range trees {
		if err := checkPairs(tree); err != nil {
			return nil, err
		}
	}
	return trees, nil
}

// Apply feeds the requested dialects' trees to fn, in the order Trees
// returns them. With no dialects listed every dialect the schema ships is
// applied; naming a dialect the schema does not ship is an error.
func Apply(ctx context.Context, fn ApplyFunc, dialects ...string) error {
	if fn == nil {
		return fmt.Errorf("migrations: apply function is required")
	}
	trees, err := Trees()
	if err != nil {
		return err
	}

	wanted := normalizeDialects(dialects)
	for _, tree := range trees {
		if wanted != nil {
			if _, ok := wanted[tree.Dialect]; !ok {
				continue
			}
			delete(wanted, tree.Dialect)
		}
		if err := fn(ctx, tree); err != nil {
			return fmt.Errorf("migrations: apply %s: %w", tree.Dialect, err)
		}
	}
	for dialect := range wanted {
		return fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
	return nil
}

// checkPairs verifies the tree is non-empty and every *.up.sql at its root
// has a matching *.down.sql.
func checkPairs(tree Tree) error {
	ups, err := fs.Glob(tree.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s tree: %w", tree.Dialect, err)
	}
	if len(ups) == 0 {
		return fmt.Errorf("migrations: %s tree has no *.up.sql files", tree.Dialect)
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, statErr := fs.Stat(tree.FS, down); statErr != nil {
			return fmt.Errorf("migrations: %s migration %s is missing %s", tree.Dialect, up, down)
		}
	}
	return nil
}

func normalizeDialects(dialects []string) map[string]struct{} {
	if len(dialects) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(dialects))
	for _, dialect := range dialects {
		trimmed := strings.TrimSpace(strings.ToLower(dialect))
		if trimmed == "" {
			continue
		}
		out[trimmed] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
