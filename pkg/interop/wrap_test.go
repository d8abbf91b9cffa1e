package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/runtime"
)

func newTestRealm(t *testing.T) *runtime.Realm {
	t.Helper()
	realm := runtime.NewRealm()
	realm.GlobalObject = runtime.NewPlainObject(nil)
	require.NoError(t, intrinsics.InitAll(realm))
	return realm
}

type fakeWrapper struct {
	fields map[string]runtime.Value
}

func (w *fakeWrapper) TryGet(name string) (runtime.Value, bool) {
	v, ok := w.fields[name]
	return v, ok
}
func (w *fakeWrapper) TrySet(name string, v runtime.Value) bool {
	if w.fields == nil {
		w.fields = map[string]runtime.Value{}
	}
	w.fields[name] = v
	return true
}
func (w *fakeWrapper) Keys() []string {
	keys := make([]string, 0, len(w.fields))
	for k := range w.fields {
		keys = append(keys, k)
	}
	return keys
}
func (w *fakeWrapper) Invoke(name string, args []runtime.Value) (runtime.Value, error) {
	return runtime.Undefined, nil
}
func (w *fakeWrapper) TypeHandle() TypeHandle { return "fake" }

func TestWrapObjectGetSet(t *testing.T) {
	realm := newTestRealm(t)
	w := &fakeWrapper{fields: map[string]runtime.Value{"name": runtime.NewString("ada")}}
	obj := WrapObject(realm, w, nil, Options{})

	v, err := obj.Get(runtime.StringKey("name"), runtime.NewObject(obj))
	require.NoError(t, err)
	assert.Equal(t, "ada", v.AsString())

	ok, err := obj.Set(runtime.StringKey("name"), runtime.NewString("grace"), runtime.NewObject(obj), false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "grace", w.fields["name"].AsString(), "wrapper field should be updated")
}

func TestWrapObjectReflectionGate(t *testing.T) {
	realm := newTestRealm(t)
	w := &fakeWrapper{}
	obj := WrapObject(realm, w, nil, Options{AllowSystemReflection: false})

	_, err := obj.Get(runtime.StringKey("GetMethods"), runtime.NewObject(obj))
	require.Error(t, err, "expected HostReflectionForbidden")
	assert.Equal(t, "Cannot access System.Reflection namespace, check Engine's interop options", err.Error())
}

func TestWrapObjectGetTypeHiddenByDefault(t *testing.T) {
	realm := newTestRealm(t)
	w := &fakeWrapper{fields: map[string]runtime.Value{"GetType": runtime.NewString("leaked")}}
	obj := WrapObject(realm, w, nil, Options{AllowGetType: false})

	v, err := obj.Get(runtime.StringKey("GetType"), runtime.NewObject(obj))
	require.NoError(t, err)
	assert.True(t, v.IsUndefined(), "expected GetType to read as absent")
}

type fakeDict struct {
	fakeWrapper
	entries map[string]runtime.Value
}

func (d *fakeDict) DictKeys() []string {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	return keys
}
func (d *fakeDict) DictGet(key string) (runtime.Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}
func (d *fakeDict) DictSet(key string, v runtime.Value) bool {
	d.entries[key] = v
	return true
}
func (d *fakeDict) DictDelete(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	return true
}

func TestWrapObjectStructuralMembersWinOverDictionary(t *testing.T) {
	realm := newTestRealm(t)
	d := &fakeDict{
		fakeWrapper: fakeWrapper{fields: map[string]runtime.Value{"size": runtime.NewNumber(1)}},
		entries:     map[string]runtime.Value{"size": runtime.NewNumber(999), "count": runtime.NewNumber(5)},
	}
	obj := WrapObject(realm, d, nil, Options{})

	v, err := obj.Get(runtime.StringKey("size"), runtime.NewObject(obj))
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.AsNumber(), "expected structural member to win over dictionary entry")

	v, err = obj.Get(runtime.StringKey("count"), runtime.NewObject(obj))
	require.NoError(t, err)
	assert.Equal(t, float64(5), v.AsNumber(), "expected dictionary fallback entry when no structural member exists")
}

func TestWrapObjectAccessorOverride(t *testing.T) {
	realm := newTestRealm(t)
	w := &fakeWrapper{}
	accessor := MemberAccessorFunc(func(_ interface{}, _ ObjectWrapper, name string) (AccessorResult, runtime.Value) {
		if name == "computed" {
			return Found, runtime.NewNumber(42)
		}
		return NoOpinion, runtime.Undefined
	})
	obj := WrapObject(realm, w, accessor, Options{})

	v, err := obj.Get(runtime.StringKey("computed"), runtime.NewObject(obj))
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsNumber())
}
