package app

import (
	"sync"
	"time"

	"github.com/coursekit/commerce/internal/domain"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const settingsCacheTTL = 60 * time.Second

// ConfigManager reads operator settings from sys_config with a short
// in-process cache. Values are stored as strings and cast on read.
type ConfigManager struct {
	app      *Application
	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{
		app:   app,
		cache: make(map[string]string),
	}
}

func (m *ConfigManager) getValue(category, name string) string {
	key := category + "." + name

	m.mu.RLock()
	fresh := time.Since(m.loadedAt) < settingsCacheTTL
	val, ok := m.cache[key]
	m.mu.RUnlock()
	if fresh && ok {
		return val
	}

	var rows []domain.SysConfig
	if err := m.app.gormDB.Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings", zap.Error(err))
		return val
	}

	m.mu.Lock()
	m.cache = make(map[string]string, len(rows))
	for _, row := range rows {
		m.cache[row.Type+"."+row.Name] = row.Value
	}
	m.loadedAt = time.Now()
	val = m.cache[key]
	m.mu.Unlock()
	return val
}

// Invalidate drops the cache so the next read hits the database.
func (m *ConfigManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

func (m *ConfigManager) GetString(category, name string) string {
	return m.getValue(category, name)
}

func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.getValue(category, name))
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.getValue(category, name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.getValue(category, name))
}

// SetValue updates a setting and invalidates the cache.
func (m *ConfigManager) SetValue(category, name, value string) error {
	err := m.app.gormDB.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", category, name).
		Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error
	if err != nil {
		return err
	}
	m.Invalidate()
	return nil
}
