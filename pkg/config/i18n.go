package config

import (
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
)

// I18nConfig selects the string table
type I18nConfig struct {
	CatalogPath string `yaml:"catalog_path"` // empty uses the built-in table
	Language    string `yaml:"language"`     // empty uses the environment locale
}

// LoadCatalog loads the configured string table.
func LoadCatalog(c I18nConfig) (*i18n.Catalog, error) {
	if c.CatalogPath == "" {
		return i18n.Default(c.Language)
	}
	return i18n.Load(c.CatalogPath, c.Language)
}
