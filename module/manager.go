package module

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
	"github.com/arrebarritra/inviwo/workspace"
)

// Manager owns the shared factories and the set of modules feeding
// them. Modules load in dependency order; a module whose dependency is
// missing or failed is skipped and recorded, the rest still load.
type Manager struct {
	logger *slog.Logger
	procs  *processor.Registry
	props  *property.Factory

	modules map[string]Module
	added   []string // insertion order, the tie-break for loading

	loaded    map[string]*Registrar
	loadOrder []string
}

// NewManager creates a manager with empty factories
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:  logger,
		procs:   processor.NewRegistry(),
		props:   property.NewFactory(),
		modules: make(map[string]Module),
		loaded:  make(map[string]*Registrar),
	}
}

// Registry returns the shared processor registry
func (m *Manager) Registry() *processor.Registry { return m.procs }

// PropertyFactory returns the shared property factory
func (m *Manager) PropertyFactory() *property.Factory { return m.props }

// Add registers a module with the manager; it stays unloaded until
// LoadAll
func (m *Manager) Add(mod Module) error {
	id := mod.Identifier()
	if id == "" {
		return errors.WrapInvalid(
			fmt.Errorf("module with empty identifier"),
			"Manager", "Add", "identifier check")
	}
	if _, exists := m.modules[id]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: module %q", errors.ErrDuplicateIdentifier, id),
			"Manager", "Add", "duplicate check")
	}
	m.modules[id] = mod
	m.added = append(m.added, id)
	return nil
}

// Remove unloads a module and forgets it. Modules depending on it are
// untouched until the next LoadAll decides their fate.
func (m *Manager) Remove(id string) error {
	if _, exists := m.modules[id]; !exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: module %q", errors.ErrNotAMember, id),
			"Manager", "Remove", "membership check")
	}
	if reg, ok := m.loaded[id]; ok {
		reg.retract()
		delete(m.loaded, id)
		m.loadOrder = slices.DeleteFunc(m.loadOrder, func(s string) bool { return s == id })
	}
	delete(m.modules, id)
	m.added = slices.DeleteFunc(m.added, func(s string) bool { return s == id })
	return nil
}

// Modules returns the identifiers of all added modules in insertion order
func (m *Manager) Modules() []string { return slices.Clone(m.added) }

// IsLoaded reports whether the module's factories are registered
func (m *Manager) IsLoaded(id string) bool {
	_, ok := m.loaded[id]
	return ok
}

// sortByDependencies orders the added modules so dependencies come
// first. A dependency cycle fails with ErrNotADAG.
func (m *Manager) sortByDependencies() ([]string, error) {
	var order []string
	visited := make(map[string]bool, len(m.modules))
	tmpVisited := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		if tmpVisited[id] {
			return errors.WrapInvalid(
				fmt.Errorf("%w: dependency cycle through module %q", errors.ErrNotADAG, id),
				"Manager", "sortByDependencies", "cycle detection")
		}
		tmpVisited[id] = true
		mod, ok := m.modules[id]
		if ok {
			for _, dep := range mod.Dependencies() {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(tmpVisited, id)
		visited[id] = true
		if ok {
			order = append(order, id)
		}
		return nil
	}

	for _, id := range m.added {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// LoadAll loads every module that is not loaded yet, dependencies
// first. Per-module failures are recorded and skipped; the returned
// error aggregates them while the surviving modules stay loaded.
func (m *Manager) LoadAll() error {
	order, err := m.sortByDependencies()
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range order {
		if m.IsLoaded(id) {
			continue
		}
		mod := m.modules[id]

		skip := false
		for _, dep := range mod.Dependencies() {
			if !m.IsLoaded(dep) {
				errs = append(errs, fmt.Errorf("module %q: dependency %q not loaded", id, dep))
				skip = true
				break
			}
		}
		if skip {
			m.logger.Warn("skipping module, missing dependency", "module", id)
			continue
		}

		reg := &Registrar{procs: m.procs, props: m.props}
		if err := mod.Register(reg); err != nil {
			reg.retract()
			m.logger.Warn("module registration failed", "module", id, "error", err)
			errs = append(errs, fmt.Errorf("module %q: %w", id, err))
			continue
		}

		m.loaded[id] = reg
		m.loadOrder = append(m.loadOrder, id)
		m.logger.Info("loaded module", "module", id,
			"processors", len(reg.procClasses), "properties", len(reg.propClasses))
	}
	return stderrors.Join(errs...)
}

// UnloadAll retracts every loaded module's contributions, in reverse
// load order
func (m *Manager) UnloadAll() {
	for i := len(m.loadOrder) - 1; i >= 0; i-- {
		id := m.loadOrder[i]
		m.loaded[id].retract()
		delete(m.loaded, id)
		m.logger.Info("unloaded module", "module", id)
	}
	m.loadOrder = nil
}

// ReloadAll reloads every module under a live network. The workspace is
// serialized first and a failure there aborts before anything is torn
// down; afterwards the network is cleared, the factories rebuilt and
// the workspace restored. Per-item restore failures are aggregated, the
// surviving items come back.
func (m *Manager) ReloadAll(n *network.Network) error {
	doc, err := workspace.Serialize(n)
	if err != nil {
		return errors.Wrap(err, "Manager", "ReloadAll", "workspace serialization")
	}

	n.Lock()
	defer n.Unlock()

	n.Clear()
	m.UnloadAll()

	loadErr := m.LoadAll()
	if loadErr != nil {
		m.logger.Warn("module reload completed with failures", "error", loadErr)
	}

	if err := workspace.Deserialize(doc, n, m.procs, m.props); err != nil {
		return stderrors.Join(loadErr, err)
	}
	return loadErr
}
