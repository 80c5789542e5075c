package modkit

import (
	"fmt"

	phttp "ghloader/internal/platform/net/http"
)

// Module is the common surface for service modules that can mount routes and expose ports
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// PortsOf returns m's ports as T
func PortsOf[T any](m Module) (T, bool) {
	p, ok := m.Ports().(T)
	return p, ok
}

// MustPortsOf is PortsOf that panics on a type mismatch
func MustPortsOf[T any](m Module) T {
	p, ok := PortsOf[T](m)
	if !ok {
		panic(fmt.Sprintf("modkit: module %q ports are %T", m.Name(), m.Ports()))
	}
	return p
}
