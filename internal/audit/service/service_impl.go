package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/audit/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	obscontext "github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Record(ctx context.Context, entry auditdomain.NewEntry) {
	actorType, actorID := obscontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = auditdomain.ActorSystem
	}

	row := auditdomain.Entry{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
		IPAddress:  obscontext.IPAddressFromContext(ctx),
		UserAgent:  obscontext.UserAgentFromContext(ctx),
		CreatedAt:  s.clock.Now(),
	}
	if entry.AccountID != 0 {
		accountID := entry.AccountID
		row.AccountID = &accountID
	}
	if row.Metadata == nil {
		row.Metadata = datatypes.JSONMap{}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}
