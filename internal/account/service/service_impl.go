package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
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

func NewService(p Params) accountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	if id == 0 {
		return nil, accountdomain.ErrInvalidAccount
	}

	var account accountdomain.Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *Service) Ensure(ctx context.Context, id snowflake.ID, email string) (*accountdomain.Account, error) {
	account, err := s.Get(ctx, id)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, accountdomain.ErrAccountNotFound) {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	now := s.clock.Now()
	created := &accountdomain.Account{
		ID:          id,
		Email:       email,
		BillingType: accountdomain.BillingTypeIndividual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}

	s.log.Info("bootstrapped account on first login", zap.String("account_id", id.String()))
	return created, nil
}

func (s *Service) UpdateBillingInfo(ctx context.Context, req accountdomain.UpdateBillingInfoRequest) (*accountdomain.Account, error) {
	account, err := s.Get(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	if req.BillingType != nil {
		switch *req.BillingType {
		case accountdomain.BillingTypeIndividual, accountdomain.BillingTypeBusiness:
			account.BillingType = *req.BillingType
		default:
			return nil, accountdomain.ErrInvalidBillingType
		}
	}
	if req.BillingEmail != nil {
		account.BillingEmail = strings.ToLower(strings.TrimSpace(*req.BillingEmail))
	}
	applyOptional(&account.CompanyName, req.CompanyName)
	applyOptional(&account.AddressLine1, req.AddressLine1)
	applyOptional(&account.City, req.City)
	applyOptional(&account.PostalCode, req.PostalCode)
	applyOptional(&account.Country, req.Country)
	applyOptional(&account.TaxID, req.TaxID)
	applyOptional(&account.VATID, req.VATID)
	account.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func applyOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	value := strings.TrimSpace(*src)
	if value == "" {
		*dst = nil
		return
	}
	*dst = &value
}
