package app

import (
	"github.com/coursekit/commerce/config"
	"gorm.io/gorm"
)

// DBProvider exposes the shared database handle.
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider exposes the loaded application configuration.
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider exposes operator-editable runtime settings backed by
// the sys_config table.
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
}
