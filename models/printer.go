package models

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

type PrinterConfig struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Model       string    `gorm:"size:100;not null" json:"model" binding:"required"`
	IpAddress   string    `gorm:"size:50;not null" json:"ip_address" binding:"required"`
	Port        string    `gorm:"size:10;not null" json:"port" binding:"required"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedById *int      `json:"created_by"`
	UpdatedById *int      `json:"updated_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPrinterConfig struct {
	Name      string `json:"name" binding:"required"`
	Model     string `json:"model" binding:"required"`
	IpAddress string `json:"ip_address" binding:"required"`
	Port      string `json:"port" binding:"required"`
	IsActive  *bool  `json:"is_active"`
}

func validateIpAddress(value string) error {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return errors.New("invalid ip address format")
	}
	for _, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 255 {
			return errors.New("invalid ip address format")
		}
	}
	return nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPrinterConfig) validate(ctx context.Context, id int) error {
	if err := validateIpAddress(input.IpAddress); err != nil {
		return err
	}
	if err := utils.ValidateUnique[PrinterConfig](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreatePrinterConfig(ctx context.Context, input *NewPrinterConfig) (*PrinterConfig, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	userId := userIdFromContext(ctx)
	printer := PrinterConfig{
		Name:        input.Name,
		Model:       input.Model,
		IpAddress:   input.IpAddress,
		Port:        input.Port,
		IsActive:    isActive,
		CreatedById: utils.NilIfEmpty(userId),
		UpdatedById: utils.NilIfEmpty(userId),
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&printer).Error; err != nil {
		return nil, err
	}
	return &printer, nil
}

func UpdatePrinterConfig(ctx context.Context, id int, input *NewPrinterConfig) (*PrinterConfig, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	printer, err := utils.FetchModel[PrinterConfig](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Model":       input.Model,
		"IpAddress":   input.IpAddress,
		"Port":        input.Port,
		"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	if input.IsActive != nil {
		updates["IsActive"] = input.IsActive
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&printer).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[PrinterConfig](id); err != nil {
		return nil, err
	}
	return printer, nil
}

func DeletePrinterConfig(ctx context.Context, id int) (*PrinterConfig, error) {
	printer, err := utils.FetchModel[PrinterConfig](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&printer).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[PrinterConfig](id); err != nil {
		return nil, err
	}
	return printer, nil
}

func GetPrinterConfig(ctx context.Context, id int) (*PrinterConfig, error) {
	return utils.FetchModel[PrinterConfig](ctx, id)
}

func ListPrinterConfigs(ctx context.Context) ([]*PrinterConfig, error) {
	db := config.GetDB()
	var results []*PrinterConfig
	// db query
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
