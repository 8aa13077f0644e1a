package models

import (
	"context"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
)

// LoginSettings is a single-row table (id = 1) holding the login page
// branding. The row is created on first read with the stock branding.
type LoginSettings struct {
	ID              int       `gorm:"primary_key" json:"id"`
	LogoUrl         *string   `gorm:"size:255" json:"logo_url"`
	CompanyName     string    `gorm:"size:100;not null" json:"company_name"`
	FirstPartText   string    `gorm:"size:50;not null" json:"first_part_text"`
	SecondPartText  string    `gorm:"size:50;not null" json:"second_part_text"`
	FirstPartColor  string    `gorm:"size:20;not null" json:"first_part_color"`
	SecondPartColor string    `gorm:"size:20;not null" json:"second_part_color"`
	Subtitle        string    `gorm:"size:200;not null" json:"subtitle"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdateLoginSettingsInput struct {
	LogoUrl         *string `json:"logo_url"`
	CompanyName     *string `json:"company_name"`
	FirstPartText   *string `json:"first_part_text"`
	SecondPartText  *string `json:"second_part_text"`
	FirstPartColor  *string `json:"first_part_color"`
	SecondPartColor *string `json:"second_part_color"`
	Subtitle        *string `json:"subtitle"`
}

const loginSettingsRowId = 1

func defaultLoginSettings() LoginSettings {
	return LoginSettings{
		ID:              loginSettingsRowId,
		CompanyName:     "TRUE BIT",
		FirstPartText:   "TRUE",
		SecondPartText:  "BIT",
		FirstPartColor:  "#FFFFFF",
		SecondPartColor: "#FF6B6B",
		Subtitle:        "TECHNOLOGIES & INVENTIONS PVT.LTD",
	}
}

// GetLoginSettings serves the login page, so it is reachable without auth
// and cached in redis.
func GetLoginSettings(ctx context.Context) (*LoginSettings, error) {
	cached, err := utils.RetrieveRedis[LoginSettings](loginSettingsRowId)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	settings := defaultLoginSettings()
	if err := db.WithContext(ctx).Where("id = ?", loginSettingsRowId).FirstOrCreate(&settings).Error; err != nil {
		// a concurrent first read may have created the row already
		if fetchErr := db.WithContext(ctx).First(&settings, loginSettingsRowId).Error; fetchErr != nil {
			return nil, err
		}
	}

	if err := utils.StoreRedis[LoginSettings](&settings, loginSettingsRowId); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateLoginSettings applies a partial update to the singleton row.
func UpdateLoginSettings(ctx context.Context, input *UpdateLoginSettingsInput) (*LoginSettings, error) {
	settings, err := GetLoginSettings(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.LogoUrl != nil {
		updates["LogoUrl"] = utils.NilIfEmpty(*input.LogoUrl)
	}
	if input.CompanyName != nil {
		updates["CompanyName"] = *input.CompanyName
	}
	if input.FirstPartText != nil {
		updates["FirstPartText"] = *input.FirstPartText
	}
	if input.SecondPartText != nil {
		updates["SecondPartText"] = *input.SecondPartText
	}
	if input.FirstPartColor != nil {
		updates["FirstPartColor"] = *input.FirstPartColor
	}
	if input.SecondPartColor != nil {
		updates["SecondPartColor"] = *input.SecondPartColor
	}
	if input.Subtitle != nil {
		updates["Subtitle"] = *input.Subtitle
	}

	db := config.GetDB()
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(settings).Updates(updates).Error; err != nil {
			return nil, err
		}
		if err := utils.RemoveRedisItem[LoginSettings](loginSettingsRowId); err != nil {
			return nil, err
		}
	}

	var fresh LoginSettings
	if err := db.WithContext(ctx).First(&fresh, loginSettingsRowId).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}
