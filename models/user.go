package models

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:15" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Place     string    `gorm:"size:100" json:"place"`
	Role      UserRole  `gorm:"size:10;not null;default:'STAFF'" json:"role"`
	PhotoUrl  *string   `gorm:"size:255" json:"photo_url"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	StoreId   *int      `json:"store"`
	Store     *Store    `json:"store_detail,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Registration is the audit row written alongside every account creation.
// It deliberately does not carry the password.
type Registration struct {
	ID           int       `gorm:"primary_key" json:"id"`
	UserId       int       `gorm:"not null;uniqueIndex" json:"user"`
	ImageUrl     *string   `gorm:"size:255" json:"image_url"`
	UserRole     UserRole  `gorm:"size:10;not null" json:"user_role"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username  string   `json:"username" binding:"required"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Place     string   `json:"place"`
	Role      UserRole `json:"role" binding:"required"`
	PhotoUrl  *string  `json:"photo_url"`
	Password  string   `json:"password" binding:"required"`
	StoreId   *int     `json:"store_id"`
}

type UpdateUserInput struct {
	Username        *string `json:"username"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	Place           *string `json:"place"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
	PhotoUrl        *string `json:"photo_url"`
	StoreId         *int    `json:"store_id"`
}

type LoginInfo struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func (result *User) PrepareGive() {
	result.Password = ""
}

func validateUsername(ctx context.Context, username string, exceptId int) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return errors.New("username cannot be longer than 30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username can only contain letters, numbers, and underscores")
	}
	count, err := utils.ResourceCountWhere[User](ctx, "LOWER(username) = ? AND id <> ?", strings.ToLower(username), exceptId)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("this username is already taken")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	allDigits := true
	for _, r := range password {
		if r < '0' || r > '9' {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("password cannot be entirely numeric")
	}
	return nil
}

// Login checks credentials and issues an access/refresh token pair.
// Staff members must name their assigned store; admins log in store-free.
func Login(ctx context.Context, username string, password string, storeId *int) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, errors.New("invalid username or password")
	}

	// check login credentials
	if err := utils.ComparePassword(user.Password, password); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	if user.Role == UserRoleStaff {
		if user.StoreId == nil {
			return nil, errors.New("staff account is not assigned to any store, contact admin")
		}
		if storeId == nil {
			return nil, errors.New("store selection is required for staff login")
		}
		if *user.StoreId != *storeId {
			return nil, fmt.Errorf("you are not authorized to access store %d, your assigned store is %d", *storeId, *user.StoreId)
		}
	}

	access, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := utils.JwtGenerateRefresh(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &LoginInfo{Access: access, Refresh: refresh, User: &user}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh access token.
func RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.JwtValidateRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).First(&user, claims.ID).Error; err != nil {
		return "", errors.New("invalid refresh token")
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", errors.New("user is disabled")
	}

	return utils.JwtGenerate(user.ID, string(user.Role))
}

// validate input for registration
func (input *NewUser) validate(ctx context.Context) error {
	if input.Role != UserRoleAdmin && input.Role != UserRoleStaff {
		return errors.New("invalid role specified")
	}
	if err := validateUsername(ctx, input.Username, 0); err != nil {
		return err
	}
	if err := validatePassword(input.Password); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.StoreId != nil {
		if err := utils.ValidateResourceId[Store](ctx, *input.StoreId); err != nil {
			return errors.New("store not found")
		}
	}
	return nil
}

// RegisterUser creates an account plus its registration row. The only-one-admin
// rule is re-checked inside the insert transaction so two concurrent admin
// registrations cannot both succeed.
func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	if input.Email != "" {
		if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", strings.ToLower(input.Email)).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("duplicate email")
		}
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:  html.EscapeString(strings.TrimSpace(input.Username)),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     utils.NilIfEmpty(strings.ToLower(input.Email)),
		Phone:     input.Phone,
		Address:   input.Address,
		Place:     input.Place,
		Role:      input.Role,
		PhotoUrl:  input.PhotoUrl,
		Password:  string(hashedPassword),
		IsActive:  utils.NewTrue(),
		StoreId:   input.StoreId,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if input.Role == UserRoleAdmin {
		var adminCount int64
		if err := tx.WithContext(ctx).Model(&User{}).Where("role = ?", UserRoleAdmin).Count(&adminCount).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if adminCount > 0 {
			tx.Rollback()
			return nil, errors.New("an admin already exists, only one admin is allowed")
		}
	}

	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	registration := Registration{
		UserId:   user.ID,
		ImageUrl: input.PhotoUrl,
		UserRole: input.Role,
	}
	if err := tx.WithContext(ctx).Create(&registration).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

// RegisterAdmin is the bootstrap endpoint used before any account exists.
func RegisterAdmin(ctx context.Context, input *NewUser) (*User, error) {
	input.Role = UserRoleAdmin
	return RegisterUser(ctx, input)
}

func AdminExists(ctx context.Context) (int64, error) {
	return utils.ResourceCountWhere[User](ctx, "role = ?", UserRoleAdmin)
}

func GetProfile(ctx context.Context) (*User, error) {
	userId := userIdFromContext(ctx)
	if userId == 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Preload("Store").First(&user, userId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	user.PrepareGive()
	return &user, nil
}

// UpdateProfile applies a partial self-update. Changing the username or the
// password requires proving the current password.
func (input *UpdateUserInput) applyTo(ctx context.Context, user *User) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if input.Username != nil && *input.Username != user.Username {
		if input.CurrentPassword == nil {
			return nil, errors.New("current password is required when changing username")
		}
		if err := validateUsername(ctx, *input.Username, user.ID); err != nil {
			return nil, err
		}
		updates["Username"] = html.EscapeString(strings.TrimSpace(*input.Username))
	}
	if input.NewPassword != nil {
		if input.CurrentPassword == nil {
			return nil, errors.New("current password is required when changing password")
		}
		if err := validatePassword(*input.NewPassword); err != nil {
			return nil, err
		}
		if *input.NewPassword == *input.CurrentPassword {
			return nil, errors.New("new password must be different from current password")
		}
		hashed, err := utils.HashPassword(*input.NewPassword)
		if err != nil {
			return nil, err
		}
		updates["Password"] = string(hashed)
	}
	if input.CurrentPassword != nil {
		if err := utils.ComparePassword(user.Password, *input.CurrentPassword); err != nil {
			return nil, errors.New("current password is incorrect")
		}
	}

	if input.FirstName != nil {
		updates["FirstName"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["LastName"] = *input.LastName
	}
	if input.Email != nil {
		if *input.Email != "" && !utils.IsValidEmail(*input.Email) {
			return nil, errors.New("invalid email address")
		}
		updates["Email"] = utils.NilIfEmpty(strings.ToLower(*input.Email))
	}
	if input.Phone != nil {
		updates["Phone"] = *input.Phone
	}
	if input.Address != nil {
		updates["Address"] = *input.Address
	}
	if input.Place != nil {
		updates["Place"] = *input.Place
	}
	if input.PhotoUrl != nil {
		updates["PhotoUrl"] = input.PhotoUrl
	}
	if input.StoreId != nil {
		if err := utils.ValidateResourceId[Store](ctx, *input.StoreId); err != nil {
			return nil, errors.New("store not found")
		}
		updates["StoreId"] = *input.StoreId
	}

	return updates, nil
}

func UpdateProfile(ctx context.Context, input *UpdateUserInput) (*User, error) {
	userId := userIdFromContext(ctx)
	if userId == 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).First(&user, userId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates, err := input.applyTo(ctx, &user)
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	user.PrepareGive()
	return &user, nil
}

func ChangePassword(ctx context.Context, currentPassword string, newPassword string) (*User, error) {
	userId := userIdFromContext(ctx)
	if userId == 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).First(&user, userId).Error; err != nil {
		return nil, err
	}
	if err := utils.ComparePassword(user.Password, currentPassword); err != nil {
		return nil, errors.New("current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if newPassword == currentPassword {
		return nil, errors.New("new password must be different from current password")
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&user).UpdateColumn("password", string(hashedPassword)).Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

// ListStaff returns staff accounts for admins; everyone else sees nothing.
func ListStaff(ctx context.Context) ([]*User, error) {
	if roleFromContext(ctx) != UserRoleAdmin {
		return []*User{}, nil
	}

	db := config.GetDB()
	var results []*User
	if err := db.WithContext(ctx).Preload("Store").
		Where("role = ?", UserRoleStaff).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	for _, u := range results {
		u.PrepareGive()
	}
	return results, nil
}

func UpdateStaff(ctx context.Context, id int, input *UpdateUserInput) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("role = ?", UserRoleStaff).First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{}
	if input.Username != nil && *input.Username != user.Username {
		if err := validateUsername(ctx, *input.Username, user.ID); err != nil {
			return nil, err
		}
		updates["Username"] = html.EscapeString(strings.TrimSpace(*input.Username))
	}
	// admin resets do not require the staff member's current password
	if input.NewPassword != nil {
		if err := validatePassword(*input.NewPassword); err != nil {
			return nil, err
		}
		hashed, err := utils.HashPassword(*input.NewPassword)
		if err != nil {
			return nil, err
		}
		updates["Password"] = string(hashed)
	}
	if input.FirstName != nil {
		updates["FirstName"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["LastName"] = *input.LastName
	}
	if input.Email != nil {
		if *input.Email != "" && !utils.IsValidEmail(*input.Email) {
			return nil, errors.New("invalid email address")
		}
		updates["Email"] = utils.NilIfEmpty(strings.ToLower(*input.Email))
	}
	if input.Phone != nil {
		updates["Phone"] = *input.Phone
	}
	if input.Address != nil {
		updates["Address"] = *input.Address
	}
	if input.Place != nil {
		updates["Place"] = *input.Place
	}
	if input.PhotoUrl != nil {
		updates["PhotoUrl"] = input.PhotoUrl
	}
	if input.StoreId != nil {
		if err := utils.ValidateResourceId[Store](ctx, *input.StoreId); err != nil {
			return nil, errors.New("store not found")
		}
		updates["StoreId"] = *input.StoreId
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if input.PhotoUrl != nil {
		if err := tx.WithContext(ctx).Model(&Registration{}).
			Where("user_id = ?", user.ID).
			Update("image_url", input.PhotoUrl).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

// DeleteStaff removes the account, its registration row, and detaches the
// user from documents they created.
func DeleteStaff(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("role = ?", UserRoleStaff).First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.WithContext(ctx).Model(&Purchase{}).
		Where("created_by_id = ?", user.ID).
		Update("created_by_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&Sale{}).
		Where("created_by_id = ?", user.ID).
		Update("created_by_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&Registration{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

// StaffStoreInfo is the login-page helper payload listing a staff member's
// assigned store before authentication.
type StaffStoreInfo struct {
	Stores   []StoreOption `json:"stores"`
	Assigned bool          `json:"assigned"`
	Message  string        `json:"message,omitempty"`
}

type StoreOption struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func GetStaffStores(ctx context.Context, username string) (*StaffStoreInfo, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Preload("Store").
		Where("username = ? AND role = ?", username, UserRoleStaff).
		Take(&user).Error; err != nil {
		return nil, errors.New("staff user not found")
	}

	if user.Store == nil {
		return &StaffStoreInfo{
			Stores:   []StoreOption{},
			Assigned: false,
			Message:  "no store assigned to this staff member",
		}, nil
	}
	return &StaffStoreInfo{
		Stores: []StoreOption{{
			ID:      user.Store.ID,
			Name:    user.Store.Name,
			Address: user.Store.Place,
		}},
		Assigned: true,
	}, nil
}

// GetMyStore resolves the calling staff member's assigned store.
func GetMyStore(ctx context.Context) (*Store, error) {
	if roleFromContext(ctx) != UserRoleStaff {
		return nil, errors.New("this endpoint is for staff only")
	}

	userId := userIdFromContext(ctx)
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Preload("Store").First(&user, userId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if user.Store == nil {
		return nil, errors.New("no store assigned to your account")
	}
	return user.Store, nil
}

// ListRegistrations returns the account creation audit trail, newest first.
func ListRegistrations(ctx context.Context) ([]Registration, error) {
	db := config.GetDB()
	var registrations []Registration
	if err := db.WithContext(ctx).Order("registered_at DESC").Find(&registrations).Error; err != nil {
		return nil, err
	}
	return registrations, nil
}
