package db

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenTestDB opens an isolated, unmigrated in-memory SQLite database. The pool
// is pinned to one connection so every goroutine sees the same data.
func OpenTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := open(sqlite.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	if err := setPool(conn, 1, 1); err != nil {
		return nil, err
	}
	return conn, nil
}

// SetupTestDB opens a test database and runs the same migrations as the server.
func SetupTestDB() (*gorm.DB, error) {
	conn, err := OpenTestDB()
	if err != nil {
		return nil, err
	}
	if err := MigrateDB(conn); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}
	return conn, nil
}

func CleanupTestDB(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}
