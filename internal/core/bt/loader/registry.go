package loader

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/zeusync/behave/internal/core/bt"
)

// ActionFactory builds the callback of an Action leaf from its params.
type ActionFactory func(params Params) (bt.ActionFunc, error)

// ConditionFactory builds the predicate of a Condition leaf from its params.
type ConditionFactory func(params Params) (bt.ConditionFunc, error)

// Registry maps the call names used in tree files to leaf factories.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	actions    map[string]ActionFactory
	conditions map[string]ConditionFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions:    make(map[string]ActionFactory),
		conditions: make(map[string]ConditionFactory),
	}
}

// RegisterAction adds or replaces an action factory.
func (r *Registry) RegisterAction(name string, factory ActionFactory) {
	r.mu.Lock()
	r.actions[name] = factory
	r.mu.Unlock()
}

// RegisterCondition adds or replaces a condition factory.
func (r *Registry) RegisterCondition(name string, factory ConditionFactory) {
	r.mu.Lock()
	r.conditions[name] = factory
	r.mu.Unlock()
}

// NewAction builds the named action. A nil registry knows no calls.
func (r *Registry) NewAction(name string, params Params) (bt.ActionFunc, error) {
	if r == nil {
		return nil, errors.Wrapf(ErrUnknownCall, "action %q", name)
	}
	r.mu.RLock()
	f := r.actions[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, errors.Wrapf(ErrUnknownCall, "action %q", name)
	}
	return f(params)
}

func (r *Registry) NewCondition(name string, params Params) (bt.ConditionFunc, error) {
	if r == nil {
		return nil, errors.Wrapf(ErrUnknownCall, "condition %q", name)
	}
	r.mu.RLock()
	f := r.conditions[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, errors.Wrapf(ErrUnknownCall, "condition %q", name)
	}
	return f(params)
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.actions)
}

// Conditions returns the registered condition names, sorted.
func (r *Registry) Conditions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.conditions)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
