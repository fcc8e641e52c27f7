package migration

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestRunMigrationsOnSqlite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}

	if err := RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	var count int64
	if err := conn.Raw(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'subscriptions'`,
	).Scan(&count).Error; err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected subscriptions table after migrations, got %d", count)
	}

	// Re-running against an up-to-date schema must be a no-op.
	if err := RunMigrations(sqlDB, "sqlite"); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
}

func TestRunMigrationsRejectsUnknownDriver(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_driver_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}

	if err := RunMigrations(sqlDB, "mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
