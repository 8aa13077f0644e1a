package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedById *int      `json:"created_by"`
	UpdatedById *int      `json:"updated_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewCategory) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Category](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId := userIdFromContext(ctx)
	category := Category{
		Name:        input.Name,
		Description: input.Description,
		CreatedById: utils.NilIfEmpty(userId),
		UpdatedById: utils.NilIfEmpty(userId),
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, id int, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&category).
		Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
			"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
		}).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Category](id); err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteCategory(ctx context.Context, id int) (*Category, error) {
	category, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete if any product uses this category
	count, err := utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by product")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&category).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Category](id); err != nil {
		return nil, err
	}
	return category, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {
	return utils.FetchModel[Category](ctx, id)
}

func ListCategories(ctx context.Context) ([]*Category, error) {
	db := config.GetDB()
	var results []*Category
	// db query
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
