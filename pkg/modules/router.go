package modules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
)

// DefaultRouteBackoff is the pause after each routing call.
const DefaultRouteBackoff = 2 * time.Second

// Router asks the generation service which module, if any, should handle a
// request.
type Router struct {
	provider llm.Provider
	catalog  *i18n.Catalog
	registry *Registry
	backoff  time.Duration

	sleep func(ctx context.Context, d time.Duration)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouteBackoff sets the pause taken after each routing call.
func WithRouteBackoff(d time.Duration) RouterOption {
	return func(r *Router) {
		if d < 0 {
			d = 0
		}
		r.backoff = d
	}
}

// NewRouter creates a router over registry.
func NewRouter(provider llm.Provider, catalog *i18n.Catalog, registry *Registry, opts ...RouterOption) (*Router, error) {
	if provider == nil || catalog == nil || registry == nil {
		return nil, errors.New("modules: router needs a provider, a catalog and a registry")
	}
	if err := catalog.Require(i18n.KeyModuleRouterHeader, i18n.KeyModuleRouterFooter, i18n.KeyModuleRouterChatbot); err != nil {
		return nil, err
	}

	r := &Router{
		provider: provider,
		catalog:  catalog,
		registry: registry,
		backoff:  DefaultRouteBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Lookup returns the registered module called name.
func (r *Router) Lookup(name string) (*Module, bool) {
	return r.registry.Get(name)
}

// BuildPrompt renders the routing question for input over the modules
// currently registered.
func (r *Router) BuildPrompt(input string) string {
	return r.buildPrompt(input, r.registry.Modules())
}

// buildPrompt numbers exactly the given modules, so a reply can be mapped
// back onto the same slice.
func (r *Router) buildPrompt(input string, modules []*Module) string {
	options := describe(modules, r.catalog.MustGet(i18n.KeyModuleRouterChatbot))
	header := r.catalog.Format(i18n.KeyModuleRouterHeader, map[string]string{"input": input})
	return header + "\n" + options + "\n" + r.catalog.MustGet(i18n.KeyModuleRouterFooter)
}

// Route returns the module chosen for input, or nil when the plain chatbot
// should answer. With no modules registered the service is not asked.
func (r *Router) Route(ctx context.Context, input string) (*Module, error) {
	modules := r.registry.Modules()
	if len(modules) == 0 {
		return nil, nil
	}

	reply, err := r.provider.Send(ctx, r.buildPrompt(input, modules))
	if err != nil {
		return nil, fmt.Errorf("module routing request failed: %w", err)
	}
	if r.backoff > 0 {
		r.sleep(ctx, r.backoff)
	}

	numbers := conversation.ExtractNumbers(reply)
	if len(numbers) == 0 {
		debugLog.Warnf("routing reply %q names no option, using chatbot", reply)
		return nil, nil
	}

	choice := numbers[0]
	if choice < 1 || choice > len(modules) {
		debugLog.Debugf("routing reply %q -> chatbot", reply)
		return nil, nil
	}

	chosen := modules[choice-1]
	debugLog.Infof("routing reply %q -> module %s", reply, chosen.Name())
	return chosen, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
