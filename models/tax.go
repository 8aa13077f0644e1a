package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
)

type Tax struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:50;not null" json:"name" binding:"required"`
	Rate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate" binding:"required"`
	Description *string         `gorm:"type:text" json:"description"`
	CreatedById *int            `json:"created_by"`
	UpdatedById *int            `json:"updated_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTax struct {
	Name        string          `json:"name" binding:"required"`
	Rate        decimal.Decimal `json:"rate" binding:"required"`
	Description *string         `json:"description"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTax) validate(ctx context.Context, id int) error {
	if input.Rate.LessThanOrEqual(decimal.Zero) || input.Rate.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("tax rate must be between 0 and 100")
	}
	if err := utils.ValidateUnique[Tax](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateTax(ctx context.Context, input *NewTax) (*Tax, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId := userIdFromContext(ctx)
	tax := Tax{
		Name:        input.Name,
		Rate:        input.Rate,
		Description: input.Description,
		CreatedById: utils.NilIfEmpty(userId),
		UpdatedById: utils.NilIfEmpty(userId),
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&tax).Error; err != nil {
		return nil, err
	}
	return &tax, nil
}

func UpdateTax(ctx context.Context, id int, input *NewTax) (*Tax, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	tax, err := utils.FetchModel[Tax](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&tax).
		Updates(map[string]interface{}{
			"Name":        input.Name,
			"Rate":        input.Rate,
			"Description": input.Description,
			"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
		}).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Tax](id); err != nil {
		return nil, err
	}
	return tax, nil
}

func DeleteTax(ctx context.Context, id int) (*Tax, error) {
	tax, err := utils.FetchModel[Tax](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete if any product uses this tax
	count, err := utils.ResourceCountWhere[Product](ctx, "tax1_id = ? OR tax2_id = ?", id, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by product")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&tax).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Tax](id); err != nil {
		return nil, err
	}
	return tax, nil
}

func GetTax(ctx context.Context, id int) (*Tax, error) {
	return utils.FetchModel[Tax](ctx, id)
}

func ListTaxes(ctx context.Context) ([]*Tax, error) {
	db := config.GetDB()
	var results []*Tax
	// db query
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
