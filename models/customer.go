package models

import (
	"context"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
)

// Customer is populated by the CRM surface; the billing core only reads it.
type Customer struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name" binding:"required"`
	Address     string    `gorm:"size:200" json:"address"`
	City        string    `gorm:"size:100" json:"city"`
	PostCode    string    `gorm:"size:20" json:"post_code"`
	CountryCode string    `gorm:"size:2;not null" json:"country_code" binding:"required,len=2"`
	VatNumber   string    `gorm:"size:20" json:"vat_number"`
	VatLiable   bool      `gorm:"not null;default:false" json:"vat_liable"`
	VatRate     int       `gorm:"not null;default:0" json:"vat_rate"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostCode    string `json:"post_code"`
	CountryCode string `json:"country_code" binding:"required,len=2"`
	VatNumber   string `json:"vat_number"`
	VatLiable   bool   `json:"vat_liable"`
	VatRate     int    `json:"vat_rate" binding:"min=0,max=100"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:        input.Name,
		Address:     input.Address,
		City:        input.City,
		PostCode:    input.PostCode,
		CountryCode: input.CountryCode,
		VatNumber:   input.VatNumber,
		VatLiable:   input.VatLiable,
		VatRate:     input.VatRate,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}
