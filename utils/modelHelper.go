package utils

import (
	"context"
	"errors"

	"github.com/WeblateOrg/website-sub000/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db by primary key, with optional association preloads
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id any, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models from db
func FetchAllModels[T any](ctx context.Context, associations ...string) ([]*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
