package audit

import (
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(service.NewService),
)
