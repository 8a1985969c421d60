package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect hides the differences between the supported SQL engines.
type Dialect interface {
	// Name is the engine name and the migrations subdirectory.
	Name() string
	DriverName() string
	DSN(config DialectConfig) string
	// RewriteQuery converts ? placeholders where the driver needs another syntax.
	RewriteQuery(query string) string
	SupportsLastInsertId() bool
	ConfigureConnection(db *sql.DB, pool PoolConfig) error
	CreateMigrationsTableQuery() string
}

// DialectConfig locates the database: Path for sqlite, URL otherwise.
type DialectConfig struct {
	Path string
	URL  string
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool is used when no pool settings are configured.
var DefaultPool = PoolConfig{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 5 * time.Minute}

type engine struct {
	name         string
	driver       string
	numbered     bool
	lastInsertID bool
	dsn          func(DialectConfig) string
	session      []string
	migrations   string
}

func (e *engine) Name() string       { return e.name }
func (e *engine) DriverName() string { return e.driver }

func (e *engine) DSN(config DialectConfig) string {
	return e.dsn(config)
}

func (e *engine) RewriteQuery(query string) string {
	if !e.numbered {
		return query
	}
	return rewritePlaceholdersToNumbered(query)
}

func (e *engine) SupportsLastInsertId() bool { return e.lastInsertID }

func (e *engine) ConfigureConnection(db *sql.DB, pool PoolConfig) error {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	for _, stmt := range e.session {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) CreateMigrationsTableQuery() string {
	return e.migrations
}

// NewSQLiteDialect returns the dialect for mattn/go-sqlite3.
func NewSQLiteDialect() Dialect {
	return &engine{
		name:         "sqlite",
		driver:       "sqlite3",
		lastInsertID: true,
		dsn:          sqliteDSN,
		migrations: `CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// NewPostgresDialect returns the dialect for lib/pq. Inserts use RETURNING id.
func NewPostgresDialect() Dialect {
	return &engine{
		name:     "postgres",
		driver:   "postgres",
		numbered: true,
		dsn:      func(c DialectConfig) string { return c.URL },
		migrations: `CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// NewMySQLDialect returns the dialect for go-sql-driver/mysql.
func NewMySQLDialect() Dialect {
	return &engine{
		name:         "mysql",
		driver:       "mysql",
		lastInsertID: true,
		dsn:          mysqlDSN,
		session:      []string{"SET FOREIGN_KEY_CHECKS = 1;"},
		migrations: `CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		)`,
	}
}

// sqliteDSN sets the pragmas through the DSN so every pooled connection
// gets them, not only the first one.
func sqliteDSN(c DialectConfig) string {
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return c.Path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// mysqlDSN forces parseTime so timestamps scan into time.Time,
// multiStatements because migration files hold several statements and
// clientFoundRows so an UPDATE that changes nothing still reports its row.
func mysqlDSN(c DialectConfig) string {
	cfg, err := mysql.ParseDSN(c.URL)
	if err != nil {
		return c.URL
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
// Placeholders inside single-quoted literals are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	counter := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			counter++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(counter))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
