package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

type Customer struct {
	ID              int            `gorm:"primary_key" json:"id"`
	CustomerId      string         `gorm:"size:10;not null;uniqueIndex" json:"customer_id"`
	Name            string         `gorm:"size:100;not null" json:"name" binding:"required"`
	Address         string         `gorm:"type:text;not null" json:"address"`
	Place           string         `gorm:"size:100;not null" json:"place"`
	PinCode         string         `gorm:"size:10;not null" json:"pin_code"`
	Email           string         `gorm:"size:100;not null;uniqueIndex" json:"email" binding:"required"`
	Phone           string         `gorm:"size:15;not null;uniqueIndex" json:"phone" binding:"required"`
	PrivilegeCardId *int           `json:"privilege_card"`
	PrivilegeCard   *PrivilegeCard `json:"privilege_card_details,omitempty"`
	CreatedById     *int           `json:"created_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name            string  `json:"name" binding:"required"`
	Address         string  `json:"address"`
	Place           string  `json:"place"`
	PinCode         string  `json:"pin_code"`
	Email           string  `json:"email" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	PrivilegeCardId *int    `json:"privilege_card"`
}

type UpdateCustomerInput struct {
	Name            *string `json:"name"`
	Address         *string `json:"address"`
	Place           *string `json:"place"`
	PinCode         *string `json:"pin_code"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	PrivilegeCardId *int    `json:"privilege_card"`
}

// validate input for both create & update. (id = 0 for create)
func validateCustomer(ctx context.Context, name, email, phone string, privilegeCardId *int, id int) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if !utils.IsValidEmail(email) {
		return errors.New("invalid email format")
	}
	if err := utils.ValidateUnique[Customer](ctx, "email", email, id); err != nil {
		return errors.New("customer with this email already exists")
	}
	if err := utils.ValidatePhoneNumber(phone, utils.DefaultPhoneRegion); err != nil {
		return errors.New("invalid phone number")
	}
	if err := utils.ValidateUnique[Customer](ctx, "phone", phone, id); err != nil {
		return errors.New("customer with this phone already exists")
	}
	if privilegeCardId != nil {
		if _, err := utils.FetchModel[PrivilegeCard](ctx, *privilegeCardId); err != nil {
			return errors.New("privilege card not found")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input NewCustomer) (*Customer, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if err := validateCustomer(ctx, input.Name, input.Email, input.Phone, input.PrivilegeCardId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	nextNo, err := NextDocumentNumber(tx.WithContext(ctx), CustomerSequenceScope())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	customer := Customer{
		CustomerId:      FormatCustomerId(nextNo),
		Name:            input.Name,
		Address:         input.Address,
		Place:           input.Place,
		PinCode:         input.PinCode,
		Email:           input.Email,
		Phone:           input.Phone,
		PrivilegeCardId: input.PrivilegeCardId,
		CreatedById:     utils.NilIfEmpty(userIdFromContext(ctx)),
	}

	// db action
	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetCustomer(ctx, customer.ID)
}

func UpdateCustomer(ctx context.Context, id int, input UpdateCustomerInput) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	name := customer.Name
	if input.Name != nil {
		name = *input.Name
	}
	email := customer.Email
	if input.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	phone := customer.Phone
	if input.Phone != nil {
		phone = strings.TrimSpace(*input.Phone)
	}
	privilegeCardId := customer.PrivilegeCardId
	if input.PrivilegeCardId != nil {
		privilegeCardId = input.PrivilegeCardId
	}

	if err := validateCustomer(ctx, name, email, phone, privilegeCardId, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":  name,
		"Email": email,
		"Phone": phone,
	}
	if input.Address != nil {
		updates["Address"] = *input.Address
	}
	if input.Place != nil {
		updates["Place"] = *input.Place
	}
	if input.PinCode != nil {
		updates["PinCode"] = *input.PinCode
	}
	if input.PrivilegeCardId != nil {
		updates["PrivilegeCardId"] = input.PrivilegeCardId
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetCustomer(ctx, id)
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	// Sales keep a protected reference to their customer
	count, err := utils.ResourceCountWhere[Sale](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by sale")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id, "PrivilegeCard")
}

// NextCustomerId previews the id the next customer will receive without
// claiming it.
func NextCustomerId(ctx context.Context) (string, error) {
	nextNo, err := PeekDocumentNumber(ctx, CustomerSequenceScope())
	if err != nil {
		return "", err
	}
	return FormatCustomerId(nextNo), nil
}

func ListCustomers(ctx context.Context, search *string) ([]Customer, error) {
	db := config.GetDB()
	var customers []Customer

	query := db.WithContext(ctx).Model(&Customer{}).Preload("PrivilegeCard")
	if search != nil && strings.TrimSpace(*search) != "" {
		term := "%" + strings.TrimSpace(*search) + "%"
		query = query.Where("name LIKE ? OR phone LIKE ? OR customer_id LIKE ?", term, term, term)
	}

	// db action
	if err := query.Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
