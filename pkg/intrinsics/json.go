package intrinsics

import (
	"math"
	"strconv"
	"strings"

	"ecmacore/pkg/json"
	"ecmacore/pkg/runtime"
)

// JSONInitializer binds JSON.parse/JSON.stringify. Grounded on the
// teacher's json_init.go for the method shape (replacer function/array,
// space argument, cycle detection throwing on circular structure) but
// parse delegates to the standalone pkg/json scanner/parser (L8) instead
// of the teacher's encoding/json-backed implementation, and parse errors
// are surfaced as thrown SyntaxError instances via NewErrorInstance.
type JSONInitializer struct{}

func (j *JSONInitializer) Name() string  { return "JSON" }
func (j *JSONInitializer) Priority() int { return PriorityJSON }

func (j *JSONInitializer) Init(ctx *Context) error {
	obj := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))

	obj.DefineMethod("parse", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.Undefined, runtime.NewThrow(NewErrorInstance(ctx.Realm, "SyntaxError", "Unexpected end of JSON input"))
		}
		text := runtime.ToStringSimple(args[0])
		jv, err := json.Parse(text)
		if err != nil {
			return runtime.Undefined, runtime.NewThrow(NewErrorInstance(ctx.Realm, "SyntaxError", err.Error()))
		}
		result := jsonValueToRuntime(ctx, jv)
		if len(args) > 1 && args[1].IsCallable() {
			result, err = jsonRevive(ctx, args[1], result)
			if err != nil {
				return runtime.Undefined, err
			}
		}
		return result, nil
	})

	obj.DefineMethod("stringify", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.Undefined, nil
		}
		value := args[0]

		var replacerFunc runtime.Value
		var propertyList []string
		if len(args) >= 2 && !args[1].IsNullish() {
			replacer := args[1]
			if replacer.IsCallable() {
				replacerFunc = replacer
			} else if replacer.Type() == runtime.TypeObject && replacer.AsObject().Kind == runtime.KindArray {
				propertyList = []string{}
				seen := map[string]bool{}
				n := replacer.AsObject().ArrayLength()
				for i := uint32(0); i < n; i++ {
					elem, _ := replacer.AsObject().Get(runtime.StringKey(itoaHelper(i)), replacer)
					var item string
					switch {
					case elem.IsString():
						item = elem.AsString()
					case elem.IsNumber():
						item = runtime.ToStringSimple(elem)
					default:
						continue
					}
					if !seen[item] {
						propertyList = append(propertyList, item)
						seen[item] = true
					}
				}
			}
		}

		gap := ""
		if len(args) >= 3 && !args[2].IsNullish() {
			space := args[2]
			if space.IsNumber() {
				n := int(space.ToNumber())
				if n < 0 {
					n = 0
				}
				if n > 10 {
					n = 10
				}
				gap = strings.Repeat(" ", n)
			} else if space.IsString() {
				gap = space.AsString()
				if len(gap) > 10 {
					gap = gap[:10]
				}
			}
		}

		s := &jsonStringifier{ctx: ctx, gap: gap, replacerFunc: replacerFunc, propertyList: propertyList, visited: map[*runtime.Object]bool{}}
		result, ok, err := s.stringify(value, "", "")
		if err != nil {
			return runtime.Undefined, err
		}
		if !ok {
			return runtime.Undefined, nil
		}
		return runtime.NewString(result), nil
	})

	ctx.DefineGlobal("JSON", runtime.NewObject(obj))
	ctx.SetIntrinsic("JSON", obj)
	return nil
}

func jsonValueToRuntime(ctx *Context, v json.Value) runtime.Value {
	switch v.Kind {
	case json.KindNull:
		return runtime.Null
	case json.KindBool:
		return runtime.NewBool(v.Bool)
	case json.KindNumber:
		return runtime.NewNumber(v.Number)
	case json.KindString:
		return runtime.NewString(v.Str)
	case json.KindArray:
		items := make([]runtime.Value, len(v.Array))
		for i, e := range v.Array {
			items[i] = jsonValueToRuntime(ctx, e)
		}
		return runtime.NewObject(arrayOf(ctx, items))
	case json.KindObject:
		o := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
		for _, k := range v.ObjKeys {
			o.DefineDataProperty(k, jsonValueToRuntime(ctx, v.ObjVals[k]), true, true, true)
		}
		return runtime.NewObject(o)
	default:
		return runtime.Undefined
	}
}

func jsonRevive(ctx *Context, reviver, value runtime.Value) (runtime.Value, error) {
	holder := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	holder.DefineDataProperty("", value, true, true, true)
	return jsonReviveWalk(ctx, reviver, runtime.NewObject(holder), "")
}

func jsonReviveWalk(ctx *Context, reviver, holder runtime.Value, key string) (runtime.Value, error) {
	obj := holder.AsObject()
	val, err := obj.Get(runtime.StringKey(key), holder)
	if err != nil {
		return runtime.Undefined, err
	}
	if val.Type() == runtime.TypeObject {
		target := val.AsObject()
		if target.Kind == runtime.KindArray {
			n := target.ArrayLength()
			for i := uint32(0); i < n; i++ {
				idx := itoaHelper(i)
				elem, err := jsonReviveWalk(ctx, reviver, val, idx)
				if err != nil {
					return runtime.Undefined, err
				}
				if elem.IsUndefined() {
					target.Delete(runtime.StringKey(idx))
				} else {
					target.Set(runtime.StringKey(idx), elem, val, false)
				}
			}
		} else {
			keys, err := target.OwnPropertyKeys()
			if err != nil {
				return runtime.Undefined, err
			}
			for _, k := range keys {
				if k.IsSymbol() {
					continue
				}
				elem, err := jsonReviveWalk(ctx, reviver, val, k.Name())
				if err != nil {
					return runtime.Undefined, err
				}
				if elem.IsUndefined() {
					target.Delete(k)
				} else {
					target.Set(k, elem, val, false)
				}
			}
		}
	}
	return runtime.Call(reviver, holder, []runtime.Value{runtime.NewString(key), val})
}

type jsonStringifier struct {
	ctx          *Context
	gap          string
	replacerFunc runtime.Value
	propertyList []string
	visited      map[*runtime.Object]bool
}

func (s *jsonStringifier) stringify(value runtime.Value, indent, key string) (string, bool, error) {
	if value.Type() == runtime.TypeObject {
		obj := value.AsObject()
		if toJSON, err := obj.Get(runtime.StringKey("toJSON"), value); err == nil && toJSON.IsCallable() {
			v, err := runtime.Call(toJSON, value, []runtime.Value{runtime.NewString(key)})
			if err != nil {
				return "", false, err
			}
			value = v
		}
	}

	switch {
	case value.IsNull():
		return "null", true, nil
	case value.IsBoolean():
		if value.AsBool() {
			return "true", true, nil
		}
		return "false", true, nil
	case value.IsNumber():
		n := value.ToNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "null", true, nil
		}
		return strconv.FormatFloat(n, 'g', -1, 64), true, nil
	case value.IsString():
		return quoteJSONString(value.AsString()), true, nil
	case value.Type() == runtime.TypeObject:
		obj := value.AsObject()
		if obj.Call != nil {
			return "", false, nil
		}
		if s.visited[obj] {
			return "", false, runtime.NewTypeErrorValue("Converting circular structure to JSON")
		}
		s.visited[obj] = true
		defer delete(s.visited, obj)

		nextIndent := indent + s.gap
		if obj.Kind == runtime.KindArray {
			n := obj.ArrayLength()
			parts := make([]string, n)
			for i := uint32(0); i < n; i++ {
				elem, _ := obj.Get(runtime.StringKey(itoaHelper(i)), value)
				elem, err := s.applyReplacer(value, itoaHelper(i), elem)
				if err != nil {
					return "", false, err
				}
				str, ok, err := s.stringify(elem, nextIndent, itoaHelper(i))
				if err != nil {
					return "", false, err
				}
				if !ok {
					str = "null"
				}
				parts[i] = str
			}
			return wrapJSON(parts, "[", "]", s.gap, indent), true, nil
		}

		var parts []string
		keys, err := obj.OwnPropertyKeys()
		if err != nil {
			return "", false, err
		}
		for _, k := range keys {
			if k.IsSymbol() {
				continue
			}
			desc, err := obj.GetOwnProperty(k)
			if err != nil {
				return "", false, err
			}
			if desc == nil || desc.Enumerable == nil || !*desc.Enumerable {
				continue
			}
			if s.propertyList != nil && !containsStr(s.propertyList, k.Name()) {
				continue
			}
			elem, _ := obj.Get(k, value)
			elem, err = s.applyReplacer(value, k.Name(), elem)
			if err != nil {
				return "", false, err
			}
			str, ok, err := s.stringify(elem, nextIndent, k.Name())
			if err != nil {
				return "", false, err
			}
			if !ok {
				continue
			}
			sep := ":"
			if s.gap != "" {
				sep = ": "
			}
			parts = append(parts, quoteJSONString(k.Name())+sep+str)
		}
		return wrapJSON(parts, "{", "}", s.gap, indent), true, nil
	default:
		return "", false, nil
	}
}

func (s *jsonStringifier) applyReplacer(holder runtime.Value, key string, value runtime.Value) (runtime.Value, error) {
	if s.replacerFunc.IsUndefined() {
		return value, nil
	}
	return runtime.Call(s.replacerFunc, holder, []runtime.Value{runtime.NewString(key), value})
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func wrapJSON(parts []string, open, close, gap, indent string) string {
	if len(parts) == 0 {
		return open + close
	}
	if gap == "" {
		return open + strings.Join(parts, ",") + close
	}
	inner := indent + gap
	return open + "\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + indent + close
}

func quoteJSONString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				hex := strconv.FormatInt(int64(r), 16)
				for len(hex) < 4 {
					hex = "0" + hex
				}
				b.WriteString(hex)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
