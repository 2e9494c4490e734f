package models

import (
	"context"
	"errors"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
)

// Discount is a percentage rebate referenced by invoices. Once referenced it
// is immutable: there is no update path, and deletion is refused while any
// invoice points at it.
type Discount struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Description string    `gorm:"size:200;not null;uniqueIndex" json:"description" binding:"required"`
	Percent     int       `gorm:"not null" json:"percent" binding:"required,min=1,max=99"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDiscount struct {
	Description string `json:"description" binding:"required"`
	Percent     int    `json:"percent" binding:"required,min=1,max=99"`
}

func (input *NewDiscount) validate(ctx context.Context) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	// description
	if err := utils.ValidateUnique[Discount](ctx, "description", input.Description, 0); err != nil {
		return err
	}
	return nil
}

func CreateDiscount(ctx context.Context, input *NewDiscount) (*Discount, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	discount := Discount{
		Description: input.Description,
		Percent:     input.Percent,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func DeleteDiscount(ctx context.Context, id int) (*Discount, error) {
	db := config.GetDB()
	result, err := utils.FetchModel[Discount](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete if any Invoice references this discount
	var count int64
	if err = db.WithContext(ctx).Model(&Invoice{}).
		Where("discount_id = ?", result.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by invoice")
	}

	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetDiscount(ctx context.Context, id int) (*Discount, error) {
	return utils.FetchModel[Discount](ctx, id)
}
