package config

import (
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/modules"
)

// BuildRouter loads every module under c.Dir and returns a router over them.
// It returns nil when module routing is disabled or no module was found.
func BuildRouter(c ModulesConfig, provider llm.Provider, catalog *i18n.Catalog) (*modules.Router, error) {
	if c.Dir == "" {
		return nil, nil
	}

	descriptors, err := modules.LoadDescriptors(c.Dir, c.Pattern)
	if err != nil {
		return nil, err
	}

	registry := modules.NewRegistry()
	for _, meta := range descriptors {
		m, err := modules.Build(meta, provider)
		if err != nil {
			return nil, err
		}
		if err := registry.Add(m); err != nil {
			return nil, err
		}
	}
	if registry.Len() == 0 {
		debugLog.Warnf("no modules found in %s matching %q", c.Dir, c.Pattern)
		return nil, nil
	}

	debugLog.Infof("loaded %d modules from %s", registry.Len(), c.Dir)
	return modules.NewRouter(provider, catalog, registry, modules.WithRouteBackoff(c.RouteBackoff))
}
