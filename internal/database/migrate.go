package database

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

var typeTokens = map[Dialect]*strings.Replacer{
	SQLite: strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{bigint}}", "INTEGER",
		"{{float}}", "REAL",
		"{{json}}", "TEXT",
		"{{ts}}", "TIMESTAMP",
	),
	Postgres: strings.NewReplacer(
		"{{id}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{bigint}}", "BIGINT",
		"{{float}}", "DOUBLE PRECISION",
		"{{json}}", "JSONB",
		"{{ts}}", "TIMESTAMPTZ",
	),
}

// render substitutes dialect column types and splits a script into statements.
func (d Dialect) render(script string) []string {
	script = typeTokens[d].Replace(script)
	var stmts []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// getSchemaVersion returns the highest applied migration version.
func getSchemaVersion(db *DB) (int, error) {
	create := db.dialect.render(`CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at {{ts}} NOT NULL
)`)
	if _, err := db.conn.Exec(create[0]); err != nil {
		return 0, fmt.Errorf("creating schema_migrations: %w", err)
	}

	var version int
	if err := db.queryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// SchemaVersion returns the applied schema version.
func (db *DB) SchemaVersion() (int, error) {
	return getSchemaVersion(db)
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// migrate brings the database schema up to the latest version. Each migration
// and its schema_migrations row commit in one transaction.
func migrate(db *DB) error {
	current, err := getSchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		logging.Info().Int("version", m.Version).Str("dialect", string(db.dialect)).
			Msgf("applying migration: %s", m.Description)

		err := db.withTx(func(tx *txn) error {
			for _, stmt := range db.dialect.render(m.SQL) {
				if _, err := tx.tx.Exec(stmt); err != nil {
					return fmt.Errorf("%w\n%s", err, stmt)
				}
			}
			_, err := tx.exec(
				"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				m.Version, m.Description, now(),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}

	return nil
}
