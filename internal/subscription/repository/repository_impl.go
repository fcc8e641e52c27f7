package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB *gorm.DB
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(p Params) subdomain.Repository {
	return &Repository{db: p.DB}
}

func (r *Repository) Latest(ctx context.Context, accountID snowflake.ID) (*subdomain.Record, error) {
	var record subdomain.Record
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subdomain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) LatestByCustomer(ctx context.Context, customerID string) (*subdomain.Record, error) {
	if customerID == "" {
		return nil, subdomain.ErrSubscriptionNotFound
	}
	var record subdomain.Record
	err := r.db.WithContext(ctx).
		Where("provider_customer_id = ?", customerID).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subdomain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) Insert(ctx context.Context, record *subdomain.Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) Update(ctx context.Context, record *subdomain.Record) error {
	// Save by primary key only; history rows for the same account must
	// never be touched by an update.
	return r.db.WithContext(ctx).
		Model(&subdomain.Record{}).
		Where("id = ?", record.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(record).Error
}
