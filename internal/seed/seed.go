// Package seed bootstraps minimal data for self-hosted installs.
package seed

import (
	"time"

	"gorm.io/gorm"
)

const (
	demoAccountID    = int64(1)
	demoAccountEmail = "demo@localhost"
)

// EnsureDemoAccount creates a demo account with a Free ledger row so a
// fresh self-hosted install is usable without a signup flow. Existing
// rows are left untouched.
func EnsureDemoAccount(db *gorm.DB) error {
	var count int64
	if err := db.Table("accounts").Where("id = ?", demoAccountID).Count(&count).Error; err != nil {
		return err
	}
	now := time.Now().UTC()
	if count == 0 {
		if err := db.Exec(
			`INSERT INTO accounts (id, email, full_name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			demoAccountID, demoAccountEmail, "Demo Account", now, now,
		).Error; err != nil {
			return err
		}
	}

	if err := db.Table("subscriptions").Where("account_id = ?", demoAccountID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(
			`INSERT INTO subscriptions (
				id, account_id, plan_name, seats, analysis_amount, subscription_status, created_at, updated_at
			) VALUES (?, ?, 'Free', 1, 100, 'active', ?, ?)`,
			demoAccountID, demoAccountID, now, now,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
