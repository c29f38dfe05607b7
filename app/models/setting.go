package models

import (
	"sync"
	"time"

	"gorm.io/gorm"
)

// Setting is a key/value row managed from the admin back-office.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null;default:'string'" json:"type"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingSiteTitle        = "site_title"
	SettingCheckoutEnabled  = "checkout_enabled"
	SettingTransferSLAHours = "transfer_sla_hours"
	SettingSupportWhatsApp  = "support_whatsapp"
	SettingDefaultCountry   = "default_country"
)

var (
	settingsCache   = map[string]string{}
	settingsCacheMu sync.RWMutex
)

// LoadSettings primes the in-memory settings map from the database.
func LoadSettings(db *gorm.DB) error {
	var rows []Setting
	if err := db.Find(&rows).Error; err != nil {
		return err
	}

	settingsCacheMu.Lock()
	defer settingsCacheMu.Unlock()
	settingsCache = make(map[string]string, len(rows))
	for _, s := range rows {
		settingsCache[s.Key] = s.Value
	}
	return nil
}

// GetSettingValue returns the cached value for key, or def when unset.
func GetSettingValue(key, def string) string {
	settingsCacheMu.RLock()
	defer settingsCacheMu.RUnlock()
	if v, ok := settingsCache[key]; ok && v != "" {
		return v
	}
	return def
}

// UpdateSettingCache keeps the in-memory map in sync after an admin write.
func UpdateSettingCache(key, value string) {
	settingsCacheMu.Lock()
	defer settingsCacheMu.Unlock()
	settingsCache[key] = value
}
