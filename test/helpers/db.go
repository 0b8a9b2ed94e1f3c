package helpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/gaswatch-project/gaswatch/internal/db"
	"github.com/gaswatch-project/gaswatch/web/models"
	"gorm.io/gorm"
)

// SetupTestDatabase returns a migrated, isolated in-memory database that is closed
// when the test ends.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.InitDB(&db.Config{Driver: db.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("could not open the test database: %s", err)
	}

	if err := gormDB.AutoMigrate(&models.Reading{}, &models.Subscription{}); err != nil {
		t.Fatalf("could not migrate the test database: %s", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gormDB
}

// CloseDatabase closes the underlying connection pool so that every further query fails.
func CloseDatabase(t *testing.T, gormDB *gorm.DB) {
	t.Helper()

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.Close()
}
