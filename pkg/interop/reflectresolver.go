package interop

import (
	"reflect"

	"ecmacore/pkg/runtime"
)

// ReflectResolver is the reference TypeResolver spec.md §4.7 calls for: "a
// Go-reflection-backed reference resolver... using stdlib reflect", for
// embedders whose host objects are plain Go values rather than a foreign
// language's own object graph. Types are registered by name up front
// (reflect has no ambient type-name registry), then resolved/enumerated
// through the stdlib reflect.Type it was registered with.
type ReflectResolver struct {
	types map[string]reflect.Type
}

func NewReflectResolver() *ReflectResolver {
	return &ReflectResolver{types: make(map[string]reflect.Type)}
}

// Register makes sample's type resolvable under name; sample is only used
// for its type, never retained.
func (r *ReflectResolver) Register(name string, sample interface{}) {
	r.types[name] = reflect.TypeOf(sample)
}

func (r *ReflectResolver) ResolveType(name string) (TypeHandle, bool) {
	t, ok := r.types[name]
	return t, ok
}

func (r *ReflectResolver) ListMembers(handle TypeHandle) []MemberDescriptor {
	t, ok := handle.(reflect.Type)
	if !ok {
		return nil
	}
	var members []MemberDescriptor
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Struct {
		for i := 0; i < structType.NumField(); i++ {
			f := structType.Field(i)
			if f.IsExported() {
				members = append(members, MemberDescriptor{Name: f.Name, Kind: MemberField})
			}
		}
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.IsExported() {
			members = append(members, MemberDescriptor{Name: m.Name, Kind: MemberMethod})
		}
	}
	return members
}

// MemberFilter accepts everything; a host embedding ReflectResolver
// directly is expected to wrap it and override this to apply its own
// policy rather than subclass reflect.Type inspection here.
func (r *ReflectResolver) MemberFilter(MemberDescriptor) bool { return true }

// ReflectWrapper is the reference ObjectWrapper backing one Go value,
// grounded on the same reflect.Value.MethodByName/FieldByName machinery
// ReflectResolver uses to enumerate members. Method groups (same Go method
// name) are exposed as a single Invoke callable; Go itself has no method
// overloading, so overload.go's ResolveOverload is only exercised when a
// caller composes several ReflectWrapper-backed candidates by hand into one
// Overload slice.
type ReflectWrapper struct {
	value  reflect.Value
	handle TypeHandle
}

func NewReflectWrapper(v interface{}, handle TypeHandle) *ReflectWrapper {
	return &ReflectWrapper{value: reflect.ValueOf(v), handle: handle}
}

func (w *ReflectWrapper) TypeHandle() TypeHandle { return w.handle }

func (w *ReflectWrapper) TryGet(name string) (runtime.Value, bool) {
	v := w.value
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() {
		return runtime.Undefined, false
	}
	if v.Kind() == reflect.Struct {
		f := v.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return goToJS(f.Interface()), true
		}
	}
	if m := w.value.MethodByName(name); m.IsValid() {
		fn := runtime.NewNativeFunction(name, m.Type().NumIn(), func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return w.Invoke(name, args)
		})
		return runtime.NewObject(fn), true
	}
	return runtime.Undefined, false
}

func (w *ReflectWrapper) TrySet(name string, value runtime.Value) bool {
	v := w.value
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return false
	}
	f := v.FieldByName(name)
	if !f.IsValid() || !f.CanSet() {
		return false
	}
	goVal, ok := jsToGo(value, f.Type())
	if !ok {
		return false
	}
	f.Set(goVal)
	return true
}

func (w *ReflectWrapper) Keys() []string {
	v := w.value
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			names = append(names, t.Field(i).Name)
		}
	}
	return names
}

func (w *ReflectWrapper) Invoke(name string, args []runtime.Value) (runtime.Value, error) {
	m := w.value.MethodByName(name)
	if !m.IsValid() {
		return runtime.Undefined, runtime.NewTypeErrorValue("host method " + name + " does not exist")
	}
	mt := m.Type()
	in := make([]reflect.Value, 0, mt.NumIn())
	for i := 0; i < mt.NumIn(); i++ {
		var arg runtime.Value
		if i < len(args) {
			arg = args[i]
		}
		gv, ok := jsToGo(arg, mt.In(i))
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("argument " + name + " could not be converted")
		}
		in = append(in, gv)
	}
	out := m.Call(in)
	if len(out) == 0 {
		return runtime.Undefined, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorInterface) && !last.IsNil() {
		return runtime.Undefined, last.Interface().(error)
	}
	if len(out) == 1 {
		return goToJS(out[0].Interface()), nil
	}
	return goToJS(out[0].Interface()), nil
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

func goToJS(v interface{}) runtime.Value {
	switch x := v.(type) {
	case nil:
		return runtime.Undefined
	case bool:
		return runtime.NewBool(x)
	case string:
		return runtime.NewString(x)
	case int:
		return runtime.NewNumber(float64(x))
	case int64:
		return runtime.NewNumber(float64(x))
	case float64:
		return runtime.NewNumber(x)
	case float32:
		return runtime.NewNumber(float64(x))
	default:
		return runtime.Undefined
	}
}

func jsToGo(v runtime.Value, t reflect.Type) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(runtime.ToStringSimple(v)).Convert(t), true
	case reflect.Bool:
		return reflect.ValueOf(v.ToBoolean()).Convert(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return reflect.ValueOf(v.ToNumber()).Convert(t), true
	}
	return reflect.Value{}, false
}
