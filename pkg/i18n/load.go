package i18n

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when neither the caller nor the environment names
// a language the database knows.
const DefaultLanguage = "es"

// aliasesKey holds, per language, glob patterns matched against locale
// strings such as "es_MX.UTF-8".
const aliasesKey = "_aliases"

// ErrUnknownLanguage is returned when no table matches the requested locale.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed strings.yaml
var defaultDatabase []byte

// database is the on-disk shape: {language: {key: value}} plus the optional
// alias table.
type database map[string]map[string]any

// Default returns the built-in catalog for the given locale.
func Default(locale string) (*Catalog, error) {
	return Parse(defaultDatabase, ".yaml", locale)
}

// Load reads a translation database from disk and returns the catalog for
// the given locale. YAML (.yaml, .yml) and JSON with comments (.json, .jsonc)
// are accepted. An empty locale is resolved from the environment.
func Load(path, locale string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading translation database %s: %w", path, err)
	}

	catalog, err := Parse(data, filepath.Ext(path), locale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes a translation database. ext selects the format and is
// compared case-insensitively.
func Parse(data []byte, ext, locale string) (*Catalog, error) {
	db := make(database)

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &db); err != nil {
			return nil, fmt.Errorf("parsing translation database: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &db); err != nil {
			return nil, fmt.Errorf("parsing translation database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported translation database format %q", ext)
	}

	language, err := db.resolve(locale)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string, len(db[language]))
	for k, v := range db[language] {
		entries[k] = toString(v)
	}
	return New(language, entries), nil
}

// resolve picks the language table for a locale: exact name, then glob
// aliases, then the language prefix ("es" from "es_MX.UTF-8"). An empty
// locale is taken from the environment and finally DefaultLanguage.
func (db database) resolve(locale string) (string, error) {
	if locale == "" {
		locale = EnvironmentLocale()
	}
	if locale == "" {
		locale = DefaultLanguage
	}

	if _, ok := db[locale]; ok && locale != aliasesKey {
		return locale, nil
	}

	aliases := db[aliasesKey]
	languages := make([]string, 0, len(aliases))
	for lang := range aliases {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	for _, lang := range languages {
		if _, ok := db[lang]; !ok {
			continue
		}
		for _, pattern := range toStrings(aliases[lang]) {
			g, err := glob.Compile(pattern)
			if err != nil {
				return "", fmt.Errorf("invalid alias pattern %q for %s: %w", pattern, lang, err)
			}
			if g.Match(locale) {
				return lang, nil
			}
		}
	}

	if prefix := languagePrefix(locale); prefix != "" {
		if _, ok := db[prefix]; ok && prefix != aliasesKey {
			return prefix, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, locale)
}

// EnvironmentLocale returns the locale named by LC_ALL, LC_MESSAGES or LANG,
// ignoring the "C" and "POSIX" placeholders.
func EnvironmentLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(name)
		if v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return ""
}

func languagePrefix(locale string) string {
	if i := strings.IndexAny(locale, "_-.@"); i >= 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case string:
		return []string{list}
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, toString(item))
		}
		return out
	case []string:
		return list
	}
	return nil
}
