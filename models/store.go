package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

type Store struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Place     string    `gorm:"size:100;not null" json:"place" binding:"required"`
	Email     string    `gorm:"size:100;not null" json:"email" binding:"required"`
	Phone     string    `gorm:"size:15;not null" json:"phone" binding:"required"`
	StoreId   string    `gorm:"size:50;not null;uniqueIndex" json:"store_id" binding:"required"`
	PhotoUrl  *string   `gorm:"size:255" json:"photo_url"`
	GstNumber *string   `gorm:"size:50" json:"gst_number"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStore struct {
	Name      string  `json:"name" binding:"required"`
	Place     string  `json:"place" binding:"required"`
	Email     string  `json:"email" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	StoreId   string  `json:"store_id" binding:"required"`
	PhotoUrl  *string `json:"photo_url"`
	GstNumber *string `json:"gst_number"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewStore) validate(ctx context.Context, id int) error {
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if err := utils.ValidateUnique[Store](ctx, "store_id", input.StoreId, id); err != nil {
		return err
	}
	return nil
}

func CreateStore(ctx context.Context, input *NewStore) (*Store, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	store := Store{
		Name:      strings.TrimSpace(input.Name),
		Place:     input.Place,
		Email:     strings.ToLower(input.Email),
		Phone:     input.Phone,
		StoreId:   strings.TrimSpace(input.StoreId),
		PhotoUrl:  input.PhotoUrl,
		GstNumber: input.GstNumber,
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func UpdateStore(ctx context.Context, id int, input *NewStore) (*Store, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	store, err := utils.FetchModel[Store](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&store).
		Updates(map[string]interface{}{
			"Name":      strings.TrimSpace(input.Name),
			"Place":     input.Place,
			"Email":     strings.ToLower(input.Email),
			"Phone":     input.Phone,
			"StoreId":   strings.TrimSpace(input.StoreId),
			"PhotoUrl":  input.PhotoUrl,
			"GstNumber": input.GstNumber,
		}).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func DeleteStore(ctx context.Context, id int) (*Store, error) {
	store, err := utils.FetchModel[Store](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete if any document or account is tied to this store
	count, err := utils.ResourceCountWhere[Purchase](ctx, "store_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by purchase")
	}
	count, err = utils.ResourceCountWhere[User](ctx, "store_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("assigned to staff")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func GetStore(ctx context.Context, id int) (*Store, error) {
	return utils.FetchModel[Store](ctx, id)
}

func ListStores(ctx context.Context) ([]*Store, error) {
	db := config.GetDB()
	var results []*Store
	// db query
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
