// Package interop is the L7 host-interop bridge (spec.md §4.7): it turns a
// host-language object graph into pkg/runtime values on demand, through a
// TypeResolver/MemberAccessor pair the embedding host supplies, plus a
// reference resolver (reflectresolver.go) backed by Go's own reflect
// package for hosts that are themselves written in Go. Nothing in this
// package assumes the host is Go specifically — the interfaces below are
// the host-language-agnostic contract spec.md §4.7/§6 describes, grounded
// on the dop251/goja DynamicObject trap shape (see
// other_examples/dop251-goja__object_dynamic.go) generalized from a
// Go-reflect-only mechanism into resolver/accessor indirection.
package interop

import "ecmacore/pkg/runtime"

// TypeHandle is an opaque reference a TypeResolver hands back for a
// resolved host type name; pkg/interop never inspects it, only threads it
// through ObjectWrapper.TypeHandle and MemberDescriptor.
type TypeHandle interface{}

// MemberKind distinguishes the three member shapes ListMembers can report.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberProperty
	MemberMethod
)

// MemberDescriptor describes one member of a resolved host type.
type MemberDescriptor struct {
	Name   string
	Kind   MemberKind
	Static bool
}

// TypeResolver exposes a host's type system to the engine: resolving a
// name to an opaque handle, listing that handle's members, and letting the
// host veto individual members from exposure (spec.md §4.7).
type TypeResolver interface {
	ResolveType(name string) (TypeHandle, bool)
	ListMembers(handle TypeHandle) []MemberDescriptor
	MemberFilter(member MemberDescriptor) bool
}

// AccessorResult is returned by a MemberAccessor: NoOpinion falls through
// to the default lookup (ObjectWrapper.TryGet, then DictionaryWrapper
// entries), Hidden makes the member invisible (Get behaves as if the
// property does not exist), Found overrides the default lookup outright.
type AccessorResult uint8

const (
	NoOpinion AccessorResult = iota
	Hidden
	Found
)

// MemberAccessor is consulted before the default lookup for every property
// access on a wrapped host object (spec.md §4.7 "consulted before the
// default lookup").
type MemberAccessor interface {
	Access(engine interface{}, target ObjectWrapper, name string) (result AccessorResult, value runtime.Value)
}

// MemberAccessorFunc adapts a plain function to MemberAccessor.
type MemberAccessorFunc func(engine interface{}, target ObjectWrapper, name string) (AccessorResult, runtime.Value)

func (f MemberAccessorFunc) Access(engine interface{}, target ObjectWrapper, name string) (AccessorResult, runtime.Value) {
	return f(engine, target, name)
}

// ObjectWrapper is the adapter interface a host implements to expose one
// object instance to script (spec.md §6 "Host interop contract"). Method
// groups (overloaded methods sharing a name) are unified by the host into
// a single Invoke callable; this package performs no reflection of its
// own on TryGet/TrySet results.
type ObjectWrapper interface {
	TryGet(name string) (runtime.Value, bool)
	TrySet(name string, value runtime.Value) bool
	Keys() []string
	Invoke(name string, args []runtime.Value) (runtime.Value, error)
	TypeHandle() TypeHandle
}

// DictionaryWrapper is implemented by host objects that are also
// associative containers (maps/dictionaries): their entries are exposed as
// JS properties in addition to ObjectWrapper's structural members, with
// structural methods taking precedence on a name collision (spec.md
// §4.7 "Host-provided dictionaries").
type DictionaryWrapper interface {
	ObjectWrapper
	DictKeys() []string
	DictGet(key string) (runtime.Value, bool)
	DictSet(key string, value runtime.Value) bool
	DictDelete(key string) bool
}

// Options gates the two interop sandbox flags spec.md §4.7/§4.9 name.
type Options struct {
	// AllowGetType exposes a "GetType" member on every wrapped object;
	// false by default, in which case GetType is simply absent (Hidden),
	// not an error.
	AllowGetType bool
	// AllowSystemReflection gates access to deep reflection namespaces:
	// with this false, any property chain reaching a reflection-surface
	// member name throws HostReflectionForbidden (spec.md §6's verbatim
	// message), regardless of AllowGetType.
	AllowSystemReflection bool
}

// reflectionSurfaceNames are member names that, once reached through a
// wrapped object, expose deep reflection (assemblies, modules, further
// GetType/GetMethods calls) rather than ordinary instance data. The set is
// deliberately conservative and CLR-flavored to match spec.md §6's
// "System.Reflection" terminology, since the spec's own end-to-end
// scenario chains exactly these names.
var reflectionSurfaceNames = map[string]bool{
	"Module":          true,
	"Assembly":        true,
	"GetMethods":      true,
	"GetProperties":   true,
	"GetFields":       true,
	"GetConstructors": true,
	"GetMember":       true,
	"GetMembers":      true,
	"InvokeMember":    true,
	"Reflection":      true,
}
