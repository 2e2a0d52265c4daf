package registry

import (
	"fmt"
	"sync"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
)

// Info holds metadata about an available behavior type
type Info struct {
	Name        string `json:"name"`        // Behavior name (e.g., "tokenize", "count")
	Description string `json:"description"` // Human-readable description
	Version     string `json:"version"`     // Behavior version
}

// Factory creates a behavior instance from its argument. The factory
// receives the raw stage argument, validates it, and returns a behavior
// ready for wiring into a pipeline. Factories must not perform I/O;
// connections belong to pipeline startup, not resolution.
type Factory func(arg any) (fitting.Behavior, error)

// Registration holds the factory and metadata for a behavior type
type Registration struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Factory     Factory           `json:"-"` // Factory function (not serializable)
	Route       fitting.RoutingFn `json:"-"` // Default input routing for the behavior
}

// Registry manages behavior factories. It provides thread-safe
// registration and lookup so stored pipeline definitions can be resolved
// into runnable stage specs by name.
type Registry struct {
	behaviors map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty behavior registry
func NewRegistry() *Registry {
	return &Registry{
		behaviors: make(map[string]*Registration),
	}
}

// Register registers a behavior factory.
// Returns an error if a behavior with the same name is already registered.
func (r *Registry) Register(registration *Registration) error {
	if registration == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "registration validation")
	}
	if err := ValidateBehaviorName(registration.Name); err != nil {
		return errors.Wrap(err, "Registry", "Register", "behavior name validation")
	}
	if registration.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.behaviors[registration.Name]; exists {
		msg := fmt.Errorf("behavior '%s' is already registered", registration.Name)
		return errors.WrapInvalid(msg, "Registry", "Register", "duplicate behavior check")
	}

	r.behaviors[registration.Name] = registration
	return nil
}

// Resolve creates a behavior instance using the named factory.
func (r *Registry) Resolve(name string, arg any) (fitting.Behavior, error) {
	if err := ValidateBehaviorName(name); err != nil {
		return nil, errors.Wrap(err, "Registry", "Resolve", "behavior name validation")
	}

	r.mu.RLock()
	registration, exists := r.behaviors[name]
	r.mu.RUnlock()

	if !exists {
		msg := fmt.Errorf("unknown behavior '%s'", name)
		return nil, errors.WrapInvalid(msg, "Registry", "Resolve", "behavior lookup")
	}

	behavior, err := registration.Factory(arg)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Resolve", "factory execution")
	}

	return behavior, nil
}

// Spec resolves a behavior by name and assembles a runnable stage spec.
// The registration's default routing is used when it has one; otherwise
// the stage falls back to hash routing.
func (r *Registry) Spec(name string, arg any) (fitting.StageSpec, error) {
	behavior, err := r.Resolve(name, arg)
	if err != nil {
		return fitting.StageSpec{}, err
	}

	r.mu.RLock()
	registration := r.behaviors[name]
	r.mu.RUnlock()

	route := registration.Route
	if route == nil {
		route = fitting.HashRoute()
	}

	spec := fitting.StageSpec{
		Name:  name,
		Impl:  behavior,
		Arg:   arg,
		Route: route,
	}

	if err := fitting.ValidateStage(spec); err != nil {
		return fitting.StageSpec{}, errors.Wrap(err, "Registry", "Spec", "stage validation")
	}

	return spec, nil
}

// Unregister removes a behavior from the registry.
func (r *Registry) Unregister(name string) {
	if name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.behaviors, name)
}

// ListBehaviors returns all registered behavior names.
func (r *Registry) ListBehaviors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.behaviors))
	for name := range r.behaviors {
		names = append(names, name)
	}

	return names
}

// ListAvailable returns information about all registered behavior types.
func (r *Registry) ListAvailable() map[string]Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Info, len(r.behaviors))
	for name, registration := range r.behaviors {
		result[name] = Info{
			Name:        registration.Name,
			Description: registration.Description,
			Version:     registration.Version,
		}
	}

	return result
}

// MaxNameLength bounds behavior names to keep stored definitions sane
const MaxNameLength = 256

// ValidateBehaviorName validates behavior names used in stored definitions
func ValidateBehaviorName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "ValidateBehaviorName", "empty name")
	}
	if len(name) > MaxNameLength {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "ValidateBehaviorName", "name too long")
	}
	// Allow alphanumeric, dash, underscore, dot
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return errors.WrapInvalid(
				errors.ErrInvalidConfig, "Registry", "ValidateBehaviorName",
				"invalid name characters")
		}
	}
	return nil
}
