package interop

import "ecmacore/pkg/errors"

// checkReflectionGate is consulted by WrapObject's get trap before
// consulting the wrapper at all: it never depends on whether the member
// actually exists, because the point of the gate is to keep a forbidden
// name from ever reaching the wrapper (spec.md §4.7 "the engine must
// intercept property chains that would escape into reflection").
func checkReflectionGate(opts Options, name string) error {
	if name == "GetType" {
		if !opts.AllowGetType {
			return nil // falls through to Hidden, not an error
		}
		return nil
	}
	if reflectionSurfaceNames[name] && !opts.AllowSystemReflection {
		return errors.NewHostReflectionForbidden()
	}
	return nil
}

// getTypeHidden reports whether name is "GetType" and the host has not
// opted into exposing it, in which case the property must read as absent
// rather than throwing (only the deeper reflection surface is an error).
func getTypeHidden(opts Options, name string) bool {
	return name == "GetType" && !opts.AllowGetType
}
