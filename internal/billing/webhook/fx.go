package webhook

import (
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.webhook",
	fx.Provide(
		func(svc subdomain.Service) Syncer { return svc },
		NewService,
	),
)
