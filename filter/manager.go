package filter

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/marquee/tmdb"
)

// Manager holds named filters, usually loaded from the filters section of
// the configuration
type Manager struct {
	compiler Compiler
	filters  map[string]CompiledFilter
	mu       sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler: NewExprCompiler(WithCache(100)),
		filters:  make(map[string]CompiledFilter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()
	return nil
}

// RegisterFilters registers every filter, stopping at the first that fails
func (m *Manager) RegisterFilters(filters map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		if err := m.RegisterFilter(name, filters[name]); err != nil {
			return err
		}
	}
	return nil
}

// GetFilter returns a registered filter
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	filter, ok := m.filters[name]
	return filter, ok
}

// ListFilters returns the registered filter names in order
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve returns the filter registered as nameOrExpr, or compiles it as an
// expression when no such name exists
func (m *Manager) Resolve(nameOrExpr string) (CompiledFilter, error) {
	if filter, ok := m.GetFilter(nameOrExpr); ok {
		return filter, nil
	}
	return m.compiler.Compile(nameOrExpr)
}

// EvaluateFilter applies a registered filter to items
func (m *Manager) EvaluateFilter(name string, items []tmdb.CatalogItem) ([]tmdb.CatalogItem, error) {
	filter, ok := m.GetFilter(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	return Apply(filter, items), nil
}
