package store

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a gorm.DB against dsn, picking a dialector from its scheme
// (postgres://, mysql://, libsql/http(s):// for a remote Turso database, or
// a bare file path for local SQLite — the pure-Go glebarez driver, so the
// cache works without cgo), runs Migrate, and returns the handle.
// debug turns on gorm's query logger.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	dialector, conn, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return db, nil
}

func dialectorFor(dsn string) (gorm.Dialector, *sql.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil, nil
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), nil, nil
	case strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://"):
		token := os.Getenv("ESPC_LIBSQL_AUTH_TOKEN")
		var (
			connector driver.Connector
			err       error
		)
		if token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("store: libsql connector: %w", err)
		}
		conn := sql.OpenDB(connector)
		return gormsqlite.New(gormsqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn}), conn, nil
	default:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("store: creating database directory: %w", err)
			}
		}
		return sqlite.Open(dsn), nil, nil
	}
}

// Migrate applies every model's schema via AutoMigrate.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Run{})
}
