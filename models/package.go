package models

import (
	"context"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/shopspring/decimal"
)

// Package is a priced service template. Invoice items reference it to derive
// their description, unit price and covered date range.
type Package struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Name        string           `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	DisplayName string           `gorm:"size:200;not null" json:"display_name" binding:"required"`
	Price       decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"price"`
	Currency    CurrencyCode     `gorm:"size:3;not null" json:"currency" binding:"required"`
	Recurrence  RecurrencePeriod `gorm:"size:1" json:"recurrence"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPackage struct {
	Name        string           `json:"name" binding:"required"`
	DisplayName string           `json:"display_name" binding:"required"`
	Price       decimal.Decimal  `json:"price"`
	Currency    CurrencyCode     `json:"currency" binding:"required"`
	Recurrence  RecurrencePeriod `json:"recurrence"`
}

func (input *NewPackage) validate(ctx context.Context) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if err := utils.ValidateUnique[Package](ctx, "name", input.Name, 0); err != nil {
		return err
	}
	return nil
}

func CreatePackage(ctx context.Context, input *NewPackage) (*Package, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	pkg := Package{
		Name:        input.Name,
		DisplayName: input.DisplayName,
		Price:       input.Price,
		Currency:    input.Currency,
		Recurrence:  input.Recurrence,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func GetPackage(ctx context.Context, id int) (*Package, error) {
	return utils.FetchModel[Package](ctx, id)
}
