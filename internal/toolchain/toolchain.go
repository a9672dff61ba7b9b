// Package toolchain resolves compiler version identifiers to concrete,
// invocable handles and never silently substitutes a different version than
// the one requested. A narrow Provider interface has interchangeable local
// and container-backed implementations, which a Registry can hold by name.
package toolchain

import (
	"context"
	"errors"
	"fmt"
)

// ErrVersionUnavailable is returned by Provider.Resolve when the requested
// compiler version cannot be produced at all (missing binary, missing image,
// docker daemon unreachable). Callers must treat this as distinct from a
// compile failure: the version was never resolved, so no CompileOutcome is
// produced for it.
var ErrVersionUnavailable = errors.New("toolchain: version unavailable")

// Handle is an opaque, version-pinned reference to a compiler invocation.
// Once resolved, a Handle always refers to the exact version it was resolved
// for; CompileStep never substitutes a different Handle to paper over a
// missing version.
type Handle struct {
	// Version is the canonical version string the handle was resolved for,
	// e.g. "18.1.0". It is never mutated after Resolve returns.
	Version string
	// Executable is the absolute path to the compiler binary for local
	// resolution, or the in-container command name for container resolution.
	Executable string
	// Container is the Docker image reference used to run Executable, or
	// empty when the handle was resolved locally.
	Container string
}

// IsContainer reports whether invoking this handle requires a container
// runtime rather than a direct subprocess.
func (h Handle) IsContainer() bool { return h.Container != "" }

// String renders a handle for logging; it never reveals more than the
// version and how it is invoked.
func (h Handle) String() string {
	if h.IsContainer() {
		return fmt.Sprintf("%s (container %s)", h.Version, h.Container)
	}
	return fmt.Sprintf("%s (%s)", h.Version, h.Executable)
}

// Provider resolves a compiler version string to a Handle. Implementations
// must fail with ErrVersionUnavailable rather than returning a Handle for a
// different version when the exact version cannot be produced.
type Provider interface {
	// Name identifies the provider, e.g. "local" or "container".
	Name() string
	// Resolve returns a Handle pinned to version, or ErrVersionUnavailable.
	Resolve(ctx context.Context, version string) (Handle, error)
	// Available reports whether version can currently be resolved without
	// actually resolving it (used for fast pre-flight checks).
	Available(ctx context.Context, version string) bool
}

// Registry holds the set of known providers, keyed by name, so a provider
// can be looked up by the configured toolchain mode.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry, keyed by its Name(). Registering
// a duplicate name overwrites the previous entry.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("toolchain: no provider registered for mode %q", name)
	}
	return p, nil
}
