package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

// PrivilegeCard is a customer tier granting a percentage discount on sales.
// One row per tier.
type PrivilegeCard struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	CardType           CardType  `gorm:"size:20;not null;uniqueIndex" json:"card_type" binding:"required"`
	DiscountPercentage int       `gorm:"not null" json:"discount_percentage" binding:"required"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPrivilegeCard struct {
	CardType           CardType `json:"card_type" binding:"required"`
	DiscountPercentage int      `json:"discount_percentage" binding:"required"`
}

type UpdatePrivilegeCardInput struct {
	CardType           *CardType `json:"card_type"`
	DiscountPercentage *int      `json:"discount_percentage"`
}

func validatePrivilegeCard(ctx context.Context, cardType CardType, discountPercentage int, exceptId int) error {
	if !cardType.Valid() {
		return errors.New("card type must be one of: PREMIUM, STANDARD, BASIC")
	}
	if discountPercentage < 1 || discountPercentage > 100 {
		return errors.New("discount percentage must be between 1 and 100")
	}
	if err := utils.ValidateUnique[PrivilegeCard](ctx, "card_type", cardType, exceptId); err != nil {
		return errors.New("privilege card already exists for this card type")
	}
	return nil
}

func CreatePrivilegeCard(ctx context.Context, input NewPrivilegeCard) (*PrivilegeCard, error) {
	if err := validatePrivilegeCard(ctx, input.CardType, input.DiscountPercentage, 0); err != nil {
		return nil, err
	}

	card := PrivilegeCard{
		CardType:           input.CardType,
		DiscountPercentage: input.DiscountPercentage,
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func UpdatePrivilegeCard(ctx context.Context, id int, input UpdatePrivilegeCardInput) (*PrivilegeCard, error) {
	card, err := utils.FetchModel[PrivilegeCard](ctx, id)
	if err != nil {
		return nil, err
	}

	cardType := card.CardType
	if input.CardType != nil {
		cardType = *input.CardType
	}
	discountPercentage := card.DiscountPercentage
	if input.DiscountPercentage != nil {
		discountPercentage = *input.DiscountPercentage
	}
	if err := validatePrivilegeCard(ctx, cardType, discountPercentage, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"CardType":           cardType,
		"DiscountPercentage": discountPercentage,
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&card).Updates(updates).Error; err != nil {
		return nil, err
	}
	return card, nil
}

func DeletePrivilegeCard(ctx context.Context, id int) (*PrivilegeCard, error) {
	card, err := utils.FetchModel[PrivilegeCard](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete a card tier that customers still hold
	count, err := utils.ResourceCountWhere[Customer](ctx, "privilege_card_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("assigned to customers")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

func GetPrivilegeCard(ctx context.Context, id int) (*PrivilegeCard, error) {
	return utils.FetchModel[PrivilegeCard](ctx, id)
}

func ListPrivilegeCards(ctx context.Context) ([]PrivilegeCard, error) {
	db := config.GetDB()
	var cards []PrivilegeCard
	// db action
	if err := db.WithContext(ctx).Order("discount_percentage DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}
