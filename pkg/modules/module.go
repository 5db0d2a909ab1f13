// Package modules holds optional task modules the chatbot can route a
// request to instead of answering it directly.
//
// A Module is an explicit, ordered pipeline of handler descriptors. Each
// descriptor is tagged with a Stage and a priority; Pipeline runs every
// feature stage first, then preprocess, then task, each group by ascending
// priority. Modules are either assembled in Go with Register or built from a
// module.yaml file whose steps become prompt handlers.
package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Stage tags where a handler runs in a module pipeline.
type Stage string

const (
	StageFeature    Stage = "feature"    // StageFeature extracts what the request is about.
	StagePreprocess Stage = "preprocess" // StagePreprocess reshapes the extracted input.
	StageTask       Stage = "task"       // StageTask produces the result.
)

var stageOrder = map[Stage]int{
	StageFeature:    0,
	StagePreprocess: 1,
	StageTask:       2,
}

// Handler transforms the output of the previous step.
type Handler func(ctx context.Context, input string) (string, error)

// Descriptor registers one handler in a module pipeline.
type Descriptor struct {
	Stage    Stage
	Name     string
	Priority int
	Prompt   string // question asked by prompt handlers, informational otherwise
	Fallback string // returned instead of an error when the handler fails
	Handler  Handler
}

// ErrInvalidDescriptor is returned by Register for unusable descriptors.
var ErrInvalidDescriptor = errors.New("invalid module descriptor")

// Module is a named pipeline of handlers.
type Module struct {
	Metadata    Metadata
	descriptors []Descriptor
}

// NewModule creates an empty module.
func NewModule(meta Metadata) *Module {
	return &Module{Metadata: meta}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.Metadata.Name
}

// Register adds a handler to the pipeline.
func (m *Module) Register(d Descriptor) error {
	if _, ok := stageOrder[d.Stage]; !ok {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidDescriptor, d.Stage)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDescriptor)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidDescriptor, d.Name)
	}
	m.descriptors = append(m.descriptors, d)
	return nil
}

// Pipeline returns the descriptors in execution order. Descriptors with the
// same stage and priority keep their registration order.
func (m *Module) Pipeline() []Descriptor {
	pipeline := make([]Descriptor, len(m.descriptors))
	copy(pipeline, m.descriptors)

	sort.SliceStable(pipeline, func(i, j int) bool {
		si, sj := stageOrder[pipeline[i].Stage], stageOrder[pipeline[j].Stage]
		if si != sj {
			return si < sj
		}
		return pipeline[i].Priority < pipeline[j].Priority
	})
	return pipeline
}

// Execute threads input through the pipeline. A failing step with a
// fallback ends the run and returns the fallback; without one the error is
// returned.
func (m *Module) Execute(ctx context.Context, input string) (string, error) {
	out := input
	for _, d := range m.Pipeline() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		next, err := d.Handler(ctx, out)
		if err != nil {
			if d.Fallback != "" {
				debugLog.Warnf("module %s: step %s failed, using fallback: %v", m.Name(), d.Name, err)
				return d.Fallback, nil
			}
			return "", fmt.Errorf("module %s: step %s: %w", m.Name(), d.Name, err)
		}
		debugLog.Debugf("module %s: step %s/%s done", m.Name(), d.Stage, d.Name)
		out = next
	}
	return out, nil
}
