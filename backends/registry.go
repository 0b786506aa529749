package backends

import "sort"

// Factory creates a backend instance from an optional configuration value.
type Factory func(config any) (Backend, error)

var registered = make(map[string]Factory)

// Register makes a backend factory available under a unique name.
// Backend packages call this from init; importing a backend package for
// side effects is enough to make it creatable by name.
func Register(name string, factory Factory) {
	registered[name] = factory
}

// Create instantiates a registered backend by name.
func Create(name string, config any) (Backend, error) {
	factory, ok := registered[name]
	if !ok {
		return nil, ErrBackendNotFound
	}
	return factory(config)
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
