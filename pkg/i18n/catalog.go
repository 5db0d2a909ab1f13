// Package i18n provides the read-only translation tables used to build
// prompts and terminal messages.
//
// A Catalog holds the strings of one language. It is created once and passed
// explicitly to the components that need it; nothing in this package keeps
// global state.
//
// Example usage:
//
//	catalog, err := i18n.Load("strings.yaml", "es_MX.UTF-8")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	preamble := catalog.Format(i18n.KeyPersonaPrompt, map[string]string{"name": "Flancisco"})
package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Keys read by the conversation core.
const (
	KeyPersonaPrompt  = "persona_prompt"  // {name}
	KeySystemLabel    = "system_label"    // may be empty: the preamble renders without a label
	KeyHumanLabel     = "human_label"     //
	KeyAssistantLabel = "assistant_label" // {name}
	KeyDiscardHeader  = "discard_header"  // {count}
	KeyDiscardFooter  = "discard_footer"  // {count}
)

// Keys read by the command line front end and the module router.
const (
	KeyWelcomeMessage      = "welcome_message"
	KeyUserInput           = "user_input"
	KeyExitCommand         = "exit_command"
	KeyResetCommand        = "reset_command"
	KeyModuleRouterHeader  = "module_router_header" // {input}
	KeyModuleRouterFooter  = "module_router_footer"
	KeyModuleRouterChatbot = "module_router_chatbot"
	KeyModuleCommand       = "module_command" // optional: "$module <name>" describes a module
	KeyModuleUnknown       = "module_unknown" // {name}
)

// CoreKeys lists the keys a catalog must define before a conversation buffer
// can be built from it. KeySystemLabel is allowed to be empty but must exist.
var CoreKeys = []string{
	KeyPersonaPrompt,
	KeySystemLabel,
	KeyHumanLabel,
	KeyAssistantLabel,
	KeyDiscardHeader,
	KeyDiscardFooter,
}

// ErrMissingKey is returned when a required key is absent from a catalog.
var ErrMissingKey = errors.New("missing translation key")

// Catalog is the translation table of a single language. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	language string
	strings  map[string]string
}

// New creates a catalog from the given entries. The map is copied.
func New(language string, entries map[string]string) *Catalog {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Catalog{language: language, strings: copied}
}

// Language returns the language code the catalog was resolved to.
func (c *Catalog) Language() string {
	return c.language
}

// Lookup returns the string stored under key.
func (c *Catalog) Lookup(key string) (string, bool) {
	s, ok := c.strings[key]
	return s, ok
}

// Get returns the string stored under key, or an empty string.
func (c *Catalog) Get(key string) string {
	return c.strings[key]
}

// MustGet returns the string stored under key and panics if it is absent.
// Use it only for keys already checked with Require.
func (c *Catalog) MustGet(key string) string {
	s, ok := c.strings[key]
	if !ok {
		panic(fmt.Sprintf("i18n: %v %q in %q catalog", ErrMissingKey, key, c.language))
	}
	return s
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.strings)
}

// Keys returns the defined keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.strings))
	for k := range c.strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format returns the string stored under key with every "{name}" placeholder
// replaced by vars["name"]. Placeholders without a value are left as-is.
func (c *Catalog) Format(key string, vars map[string]string) string {
	return Expand(c.strings[key], vars)
}

// Require returns an error wrapping ErrMissingKey listing every absent key.
func (c *Catalog) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := c.strings[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %q catalog: %s", ErrMissingKey, c.language, strings.Join(missing, ", "))
	}
	return nil
}

// Expand substitutes "{name}" placeholders in template.
func Expand(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
