package billing

import (
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	stripeprovider "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/stripe"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billing",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Provider {
		return stripeprovider.NewProvider(cfg.Stripe.APIKey, log)
	}),
)
