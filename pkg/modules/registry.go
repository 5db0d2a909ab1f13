package modules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
)

var debugLog = logging.MustComponent("modules")

// Registry keeps the modules offered to the router, in the order they were
// added. The position of a module is the number the router shows for it.
type Registry struct {
	mu      sync.RWMutex
	modules []*Module
	byName  map[string]*Module
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Module),
	}
}

// Add appends a module. Names must be unique.
func (r *Registry) Add(m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[m.Name()]; exists {
		return fmt.Errorf("module %s already registered", m.Name())
	}
	r.modules = append(r.modules, m)
	r.byName[m.Name()] = m
	return nil
}

// Get retrieves a module by name
func (r *Registry) Get(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byName[name]
	return m, ok
}

// Modules returns the registered modules in order
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of registered modules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Descriptions renders the numbered options shown to the router, one per
// module followed by the plain chatbot option, and returns the number of
// modules.
func (r *Registry) Descriptions(chatbotOption string) (string, int) {
	modules := r.Modules()
	return describe(modules, chatbotOption), len(modules)
}

// describe numbers modules from 1 and appends the chatbot option last.
func describe(modules []*Module, chatbotOption string) string {
	var b strings.Builder
	for i, m := range modules {
		fmt.Fprintf(&b, "\t%d. %s\n", i+1, m.Metadata.DescriptionPrompt)
	}
	fmt.Fprintf(&b, "\t%d. %s", len(modules)+1, chatbotOption)
	return b.String()
}
