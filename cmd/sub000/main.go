// @title           sub000 API
// @version         1.0
// @description     Subscription reconciliation service

// @BasePath  /api
// @Schemes 	http https

// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/account"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/audit"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/webhook"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/config"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/events"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/migration"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/observability"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/logger"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/seed"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/server"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription"
	"github.com/christianseyboth/bolt-hackathon-sub000/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB, cfg.Database.Driver); err != nil {
				return err
			}
			if !cfg.IsCloud() && cfg.Bootstrap.EnsureDemoAccount {
				return seed.EnsureDemoAccount(conn)
			}
			return nil
		}),

		account.Module,
		billing.Module,
		audit.Module,
		events.Module,
		subscription.Module,
		webhook.Module,

		server.Module,
	)
	app.Run()
}
