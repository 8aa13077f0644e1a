package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

type Unit struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name" binding:"required"`
	Type        UnitType  `gorm:"size:10;not null" json:"type" binding:"required"`
	Symbol      string    `gorm:"size:5;not null" json:"symbol" binding:"required"`
	CreatedById *int      `json:"created_by"`
	UpdatedById *int      `json:"updated_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnit struct {
	Name   string   `json:"name" binding:"required"`
	Type   UnitType `json:"type" binding:"required"`
	Symbol string   `json:"symbol" binding:"required"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewUnit) validate(ctx context.Context, id int) error {
	if !input.Type.Valid() {
		return errors.New("type must be one of: SALE, PURCHASE")
	}
	if len(input.Symbol) > 5 {
		return errors.New("symbol cannot exceed 5 characters")
	}
	if err := utils.ValidateUnique[Unit](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateUnit(ctx context.Context, input *NewUnit) (*Unit, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId := userIdFromContext(ctx)
	unit := Unit{
		Name:        input.Name,
		Type:        input.Type,
		Symbol:      input.Symbol,
		CreatedById: utils.NilIfEmpty(userId),
		UpdatedById: utils.NilIfEmpty(userId),
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func UpdateUnit(ctx context.Context, id int, input *NewUnit) (*Unit, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	unit, err := utils.FetchModel[Unit](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&unit).
		Updates(map[string]interface{}{
			"Name":        input.Name,
			"Type":        input.Type,
			"Symbol":      input.Symbol,
			"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
		}).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Unit](id); err != nil {
		return nil, err
	}
	return unit, nil
}

func DeleteUnit(ctx context.Context, id int) (*Unit, error) {
	unit, err := utils.FetchModel[Unit](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&unit).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Unit](id); err != nil {
		return nil, err
	}
	return unit, nil
}

func GetUnit(ctx context.Context, id int) (*Unit, error) {
	return utils.FetchModel[Unit](ctx, id)
}

func ListUnits(ctx context.Context, unitType *UnitType) ([]*Unit, error) {
	db := config.GetDB()
	var results []*Unit

	dbCtx := db.WithContext(ctx)
	if unitType != nil {
		dbCtx = dbCtx.Where("type = ?", *unitType)
	}
	// db query
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
