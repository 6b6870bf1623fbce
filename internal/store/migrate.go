package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/GuiaBolso/darwin"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Dialects supported by RunMigrations; each has its own migrations folder.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// RunMigrations applies pending migrations for the dialect. Files are named
// NNN_description.sql; NNN becomes the darwin version and must never be reused.
// Applied scripts are checksummed, so editing one after release fails startup.
func RunMigrations(db *sql.DB, dialect string) error {
	var d darwin.Dialect
	switch dialect {
	case DialectSQLite:
		d = darwin.SqliteDialect{}
	case DialectPostgres:
		d = darwin.PostgresDialect{}
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	migrations, err := loadMigrations(dialect)
	if err != nil {
		return err
	}
	return darwin.New(darwin.NewGenericDriver(db, d), migrations, nil).Migrate()
}

func loadMigrations(dialect string) ([]darwin.Migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	// ensure deterministic order: 001_..., 002_..., etc.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var res []darwin.Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, desc, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		script, err := fs.ReadFile(migrationsFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		res = append(res, darwin.Migration{
			Version:     version,
			Description: desc,
			Script:      string(script),
		})
	}
	return res, nil
}

// parseMigrationName splits "002_create_reminders.sql" into 2 and "create reminders".
func parseMigrationName(name string) (float64, string, error) {
	base := strings.TrimSuffix(name, ".sql")
	num, desc, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", fmt.Errorf("migration %q: expected NNN_description.sql", name)
	}
	v, err := strconv.Atoi(num)
	if err != nil || v <= 0 {
		return 0, "", fmt.Errorf("migration %q: bad version %q", name, num)
	}
	return float64(v), strings.ReplaceAll(desc, "_", " "), nil
}
