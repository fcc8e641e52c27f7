package subscription

import (
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/cache"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/repository"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
		func() cache.Cache[string, []billingdomain.Invoice] {
			return cache.NewTTLCache[string, []billingdomain.Invoice]()
		},
	),
)
