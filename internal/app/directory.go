package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/monitor"
	"gorm.io/gorm"
)

// Directory resolves logical router names to management addresses
type Directory interface {
	Resolve(ctx context.Context, hostname string) (*domain.NetRouter, error)
	ListEnabled(ctx context.Context) ([]domain.NetRouter, error)
}

// GormDirectory reads routers from the net_router table
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Resolve(ctx context.Context, hostname string) (*domain.NetRouter, error) {
	var router domain.NetRouter
	err := d.db.WithContext(ctx).Where("hostname = ?", hostname).First(&router).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &monitor.NotFoundError{Kind: "device", Key: hostname}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolve device %s", hostname)
	}
	return &router, nil
}

func (d *GormDirectory) ListEnabled(ctx context.Context) ([]domain.NetRouter, error) {
	var routers []domain.NetRouter
	err := d.db.WithContext(ctx).
		Where("status = ?", "enabled").
		Order("hostname ASC").
		Find(&routers).Error
	if err != nil {
		return nil, errors.Wrap(err, "list enabled routers")
	}
	return routers, nil
}
