package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var accountTestNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

var accountTestDBSeq atomic.Int64

func setupAccountTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:accounttest%d?mode=memory&cache=shared", accountTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			billing_email TEXT NOT NULL DEFAULT '',
			billing_type TEXT NOT NULL DEFAULT 'individual',
			company_name TEXT,
			address_line1 TEXT,
			city TEXT,
			postal_code TEXT,
			country TEXT,
			tax_id TEXT,
			vat_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create accounts: %v", err)
	}
	return db
}

func newTestAccountService(t *testing.T, db *gorm.DB) accountdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed(accountTestNow),
	})
}

func TestEnsureStampsInjectedClock(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(t, db)
	ctx := context.Background()
	accountID := snowflake.ParseInt64(4001)

	account, err := svc.Ensure(ctx, accountID, "A4001@Example.com")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if account.Email != "a4001@example.com" {
		t.Errorf("email = %q, want lowercased", account.Email)
	}
	if !account.CreatedAt.Equal(accountTestNow) {
		t.Errorf("created_at = %v, want %v", account.CreatedAt, accountTestNow)
	}

	// A second call returns the existing row instead of re-creating it.
	again, err := svc.Ensure(ctx, accountID, "other@example.com")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.Email != "a4001@example.com" {
		t.Errorf("email after second ensure = %q", again.Email)
	}
}

func TestUpdateBillingInfoStampsInjectedClock(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(t, db)
	ctx := context.Background()
	accountID := snowflake.ParseInt64(4002)

	if _, err := svc.Ensure(ctx, accountID, "a4002@example.com"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	company := "Acme GmbH"
	billingType := accountdomain.BillingTypeBusiness
	account, err := svc.UpdateBillingInfo(ctx, accountdomain.UpdateBillingInfoRequest{
		AccountID:   accountID,
		BillingType: &billingType,
		CompanyName: &company,
	})
	if err != nil {
		t.Fatalf("update billing info: %v", err)
	}
	if account.BillingType != accountdomain.BillingTypeBusiness {
		t.Errorf("billing type = %q", account.BillingType)
	}
	if account.CompanyName == nil || *account.CompanyName != company {
		t.Errorf("company name = %v", account.CompanyName)
	}
	if !account.UpdatedAt.Equal(accountTestNow) {
		t.Errorf("updated_at = %v, want %v", account.UpdatedAt, accountTestNow)
	}
}

func TestUpdateBillingInfoRejectsUnknownType(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(t, db)
	ctx := context.Background()
	accountID := snowflake.ParseInt64(4003)

	if _, err := svc.Ensure(ctx, accountID, "a4003@example.com"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	billingType := accountdomain.BillingType("enterprise")
	_, err := svc.UpdateBillingInfo(ctx, accountdomain.UpdateBillingInfoRequest{
		AccountID:   accountID,
		BillingType: &billingType,
	})
	if !errors.Is(err, accountdomain.ErrInvalidBillingType) {
		t.Fatalf("err = %v, want ErrInvalidBillingType", err)
	}
}
