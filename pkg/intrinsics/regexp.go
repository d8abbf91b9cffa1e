package intrinsics

import (
	"strings"

	"github.com/dlclark/regexp2"

	"ecmacore/pkg/runtime"
)

// RegExpInitializer builds RegExp.prototype (test/exec/toString plus
// [Symbol.match]/[Symbol.search]/[Symbol.replace]/[Symbol.split], the hooks
// String.prototype.match/search/replace/replaceAll/split dispatch through)
// and the RegExp constructor, backed by github.com/dlclark/regexp2 rather
// than stdlib regexp/regexp/syntax — the teacher's own go.mod direct
// dependency, chosen there (and here) because stdlib RE2 cannot express
// backreferences or lookaround, both of which appear in ordinary
// ECMAScript patterns. Grounded on the teacher's regexp_init.go test/exec
// control flow, including its lastIndex-driven global/sticky matching
// loop, reused as the shared backbone for the four symbol methods below;
// named capture groups are left as undefined (matches the teacher's own
// explicit TODO in that file), so $<name> substitution and a callable
// replacer's namedCaptures argument never fire.
type RegExpInitializer struct{}

func (r *RegExpInitializer) Name() string  { return "RegExp" }
func (r *RegExpInitializer) Priority() int { return PriorityRegExp }

func regexpOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.RE2)
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	return opts
}

func newRegExpObject(ctx *Context, source, flags string) *runtime.Object {
	obj := runtime.NewPlainObject(ctx.Intrinsic("RegExpPrototype"))
	obj.Class = "RegExp"
	re, err := regexp2.Compile(source, regexpOptions(flags))
	obj.Slots = map[string]interface{}{
		"source":    source,
		"flags":     flags,
		"lastIndex": 0,
	}
	if err != nil {
		obj.Slots["compileError"] = err.Error()
	} else {
		obj.Slots["regexp"] = re
	}
	obj.DefineDataProperty("lastIndex", runtime.NewNumber(0), true, false, false)
	obj.DefineDataProperty("source", runtime.NewString(source), false, false, false)
	obj.DefineDataProperty("flags", runtime.NewString(flags), false, false, false)
	obj.DefineDataProperty("global", runtime.NewBool(strings.Contains(flags, "g")), false, false, false)
	obj.DefineDataProperty("ignoreCase", runtime.NewBool(strings.Contains(flags, "i")), false, false, false)
	obj.DefineDataProperty("multiline", runtime.NewBool(strings.Contains(flags, "m")), false, false, false)
	obj.DefineDataProperty("sticky", runtime.NewBool(strings.Contains(flags, "y")), false, false, false)
	return obj
}

func regexpLastIndex(this runtime.Value) int {
	v, _ := this.AsObject().Get(runtime.StringKey("lastIndex"), this)
	return int(v.ToNumber())
}

func setRegexpLastIndex(this runtime.Value, n int) {
	this.AsObject().Set(runtime.StringKey("lastIndex"), runtime.NewNumber(float64(n)), this, true)
}

func (r *RegExpInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "RegExp"
	ctx.SetIntrinsic("RegExpPrototype", proto)

	proto.DefineMethod("test", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		result, err := execRegExp(ctx, this, firstArgOrUndefined(args))
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(!result.IsNull()), nil
	})
	proto.DefineMethod("exec", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return execRegExp(ctx, this, firstArgOrUndefined(args))
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		source, _ := this.AsObject().Slots["source"].(string)
		flags, _ := this.AsObject().Slots["flags"].(string)
		return runtime.NewString("/" + source + "/" + flags), nil
	})

	matchFn := runtime.NewObject(runtime.NewNativeFunction("[Symbol.match]", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := runtime.ToStringSimple(firstArgOrUndefined(args))
		global, err := this.AsObject().Get(runtime.StringKey("global"), this)
		if err != nil {
			return runtime.Undefined, err
		}
		if !global.ToBoolean() {
			return execRegExp(ctx, this, runtime.NewString(str))
		}
		setRegexpLastIndex(this, 0)
		var matches []runtime.Value
		for {
			result, err := execRegExp(ctx, this, runtime.NewString(str))
			if err != nil {
				return runtime.Undefined, err
			}
			if result.IsNull() {
				break
			}
			matchStr, _ := result.AsObject().Get(runtime.StringKey("0"), result)
			s := runtime.ToStringSimple(matchStr)
			matches = append(matches, runtime.NewString(s))
			if s == "" {
				setRegexpLastIndex(this, regexpLastIndex(this)+1)
			}
		}
		if len(matches) == 0 {
			return runtime.Null, nil
		}
		return runtime.NewObject(arrayOf(ctx, matches)), nil
	}))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Match), runtime.DataDescriptor(matchFn, true, false, true))

	searchFn := runtime.NewObject(runtime.NewNativeFunction("[Symbol.search]", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := runtime.ToStringSimple(firstArgOrUndefined(args))
		previousLastIndex := regexpLastIndex(this)
		if previousLastIndex != 0 {
			setRegexpLastIndex(this, 0)
		}
		result, err := execRegExp(ctx, this, runtime.NewString(str))
		if err != nil {
			return runtime.Undefined, err
		}
		if regexpLastIndex(this) != previousLastIndex {
			setRegexpLastIndex(this, previousLastIndex)
		}
		if result.IsNull() {
			return runtime.NewNumber(-1), nil
		}
		idx, _ := result.AsObject().Get(runtime.StringKey("index"), result)
		return idx, nil
	}))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Search), runtime.DataDescriptor(searchFn, true, false, true))

	replaceFn := runtime.NewObject(runtime.NewNativeFunction("[Symbol.replace]", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := runtime.ToStringSimple(firstArgOrUndefined(args))
		replaceValue := argOr(args, 1, runtime.Undefined)
		globalVal, err := this.AsObject().Get(runtime.StringKey("global"), this)
		if err != nil {
			return runtime.Undefined, err
		}
		global := globalVal.ToBoolean()
		if global {
			setRegexpLastIndex(this, 0)
		}
		var results []runtime.Value
		for {
			result, err := execRegExp(ctx, this, runtime.NewString(str))
			if err != nil {
				return runtime.Undefined, err
			}
			if result.IsNull() {
				break
			}
			results = append(results, result)
			if !global {
				break
			}
			matchStr, _ := result.AsObject().Get(runtime.StringKey("0"), result)
			if runtime.ToStringSimple(matchStr) == "" {
				setRegexpLastIndex(this, regexpLastIndex(this)+1)
			}
		}
		var b strings.Builder
		nextSourcePos := 0
		for _, result := range results {
			resObj := result.AsObject()
			matchedVal, _ := resObj.Get(runtime.StringKey("0"), result)
			matched := runtime.ToStringSimple(matchedVal)
			idxVal, _ := resObj.Get(runtime.StringKey("index"), result)
			position := int(idxVal.ToNumber())
			if position < 0 {
				position = 0
			}
			if position > len(str) {
				position = len(str)
			}
			n := resObj.ArrayLength()
			var captures []runtime.Value
			for i := uint32(1); i < n; i++ {
				v, _ := resObj.Get(runtime.StringKey(itoaHelper(i)), result)
				captures = append(captures, v)
			}
			namedCaptures, _ := resObj.Get(runtime.StringKey("groups"), result)
			var replacement string
			if replaceValue.IsCallable() {
				callArgs := []runtime.Value{matchedVal}
				for _, c := range captures {
					callArgs = append(callArgs, c)
				}
				callArgs = append(callArgs, runtime.NewNumber(float64(position)), runtime.NewString(str))
				if namedCaptures.Type() == runtime.TypeObject {
					callArgs = append(callArgs, namedCaptures)
				}
				r, err := runtime.Call(replaceValue, runtime.Undefined, callArgs)
				if err != nil {
					return runtime.Undefined, err
				}
				replacement = runtime.ToStringSimple(r)
			} else {
				template := runtime.ToStringSimple(replaceValue)
				replacement = getSubstitution(matched, str, position, captures, namedCaptures, template)
			}
			if position >= nextSourcePos {
				b.WriteString(str[nextSourcePos:position])
				b.WriteString(replacement)
				nextSourcePos = position + len(matched)
			}
		}
		if nextSourcePos < len(str) {
			b.WriteString(str[nextSourcePos:])
		}
		return runtime.NewString(b.String()), nil
	}))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Replace), runtime.DataDescriptor(replaceFn, true, false, true))

	splitFn := runtime.NewObject(runtime.NewNativeFunction("[Symbol.split]", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := runtime.ToStringSimple(firstArgOrUndefined(args))
		source, _ := this.AsObject().Slots["source"].(string)
		flags, _ := this.AsObject().Slots["flags"].(string)
		if !strings.Contains(flags, "y") {
			flags += "y"
		}
		limit := uint32(4294967295)
		if len(args) > 1 && !args[1].IsUndefined() {
			limit = uint32(args[1].ToNumber())
		}
		if limit == 0 {
			return runtime.NewObject(arrayOf(ctx, nil)), nil
		}
		splitter := runtime.NewObject(newRegExpObject(ctx, source, flags))
		if str == "" {
			result, err := execRegExp(ctx, splitter, runtime.NewString(str))
			if err != nil {
				return runtime.Undefined, err
			}
			if !result.IsNull() {
				return runtime.NewObject(arrayOf(ctx, nil)), nil
			}
			return runtime.NewObject(arrayOf(ctx, []runtime.Value{runtime.NewString(str)})), nil
		}
		var items []runtime.Value
		lastEnd := 0
		pos := 0
		for pos < len(str) {
			setRegexpLastIndex(splitter, pos)
			result, err := execRegExp(ctx, splitter, runtime.NewString(str))
			if err != nil {
				return runtime.Undefined, err
			}
			if result.IsNull() {
				pos++
				continue
			}
			resObj := result.AsObject()
			idxVal, _ := resObj.Get(runtime.StringKey("index"), result)
			matchStr, _ := resObj.Get(runtime.StringKey("0"), result)
			matchIdx := int(idxVal.ToNumber())
			matchLen := len(runtime.ToStringSimple(matchStr))
			matchEnd := matchIdx + matchLen
			if matchEnd == lastEnd {
				pos = matchIdx + 1
				continue
			}
			items = append(items, runtime.NewString(str[lastEnd:matchIdx]))
			if uint32(len(items)) == limit {
				return runtime.NewObject(arrayOf(ctx, items)), nil
			}
			n := resObj.ArrayLength()
			for i := uint32(1); i < n; i++ {
				v, _ := resObj.Get(runtime.StringKey(itoaHelper(i)), result)
				items = append(items, v)
				if uint32(len(items)) == limit {
					return runtime.NewObject(arrayOf(ctx, items)), nil
				}
			}
			lastEnd = matchEnd
			if matchLen == 0 {
				pos = matchEnd + 1
			} else {
				pos = matchEnd
			}
		}
		items = append(items, runtime.NewString(str[lastEnd:]))
		return runtime.NewObject(arrayOf(ctx, items)), nil
	}))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Split), runtime.DataDescriptor(splitFn, true, false, true))

	ctor := runtime.NewNativeFunction("RegExp", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return regexpConstruct(ctx, args)
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		return regexpConstruct(ctx, args)
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctx.DefineGlobal("RegExp", runtime.NewObject(ctor))
	ctx.SetIntrinsic("RegExp", ctor)
	return nil
}

func regexpConstruct(ctx *Context, args []runtime.Value) (runtime.Value, error) {
	source := ""
	flags := ""
	if len(args) > 0 {
		if args[0].Type() == runtime.TypeObject && args[0].AsObject().Class == "RegExp" {
			source, _ = args[0].AsObject().Slots["source"].(string)
			flags, _ = args[0].AsObject().Slots["flags"].(string)
		} else if !args[0].IsUndefined() {
			source = runtime.ToStringSimple(args[0])
		}
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		flags = runtime.ToStringSimple(args[1])
	}
	return runtime.NewObject(newRegExpObject(ctx, source, flags)), nil
}

func execRegExp(ctx *Context, this runtime.Value, arg runtime.Value) (runtime.Value, error) {
	if this.Type() != runtime.TypeObject || this.AsObject().Class != "RegExp" {
		return runtime.Undefined, runtime.NewTypeErrorValue("RegExp method called on incompatible receiver")
	}
	obj := this.AsObject()
	if compileErr, ok := obj.Slots["compileError"].(string); ok {
		return runtime.Undefined, runtime.NewSyntaxErrorValue("Invalid regular expression: " + compileErr)
	}
	re, _ := obj.Slots["regexp"].(*regexp2.Regexp)
	if re == nil {
		return runtime.Null, nil
	}
	str := runtime.ToStringSimple(arg)
	flags, _ := obj.Slots["flags"].(string)
	isGlobal := strings.Contains(flags, "g")
	isSticky := strings.Contains(flags, "y")

	base := 0
	if isGlobal || isSticky {
		base = regexpLastIndex(this)
		if base < 0 || base > len(str) {
			setRegexpLastIndex(this, 0)
			return runtime.Null, nil
		}
	}

	match, err := re.FindStringMatch(str[base:])
	if err != nil || match == nil {
		if isGlobal || isSticky {
			setRegexpLastIndex(this, 0)
		}
		return runtime.Null, nil
	}
	if isSticky && match.Index != 0 {
		setRegexpLastIndex(this, 0)
		return runtime.Null, nil
	}

	groups := match.Groups()
	items := make([]runtime.Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			items[i] = runtime.Undefined
		} else {
			items[i] = runtime.NewString(g.String())
		}
	}
	if isGlobal || isSticky {
		setRegexpLastIndex(this, base+match.Index+match.Length)
	}
	arr := arrayOf(ctx, items)
	arr.DefineDataProperty("index", runtime.NewNumber(float64(base+match.Index)), true, true, true)
	arr.DefineDataProperty("input", runtime.NewString(str), true, true, true)
	arr.DefineDataProperty("groups", runtime.Undefined, true, true, true)
	return runtime.NewObject(arr), nil
}

// matchableOf resolves the receiver/method pair String.prototype.match and
// .search dispatch to: an object already carrying a callable sym method is
// used as-is (per spec, so user-defined @@match/@@search objects work),
// otherwise arg is coerced into a plain RegExp (empty flags) and that
// RegExp's method is used instead.
func matchableOf(ctx *Context, arg runtime.Value, sym *runtime.SymbolData) (runtime.Value, runtime.Value, error) {
	if arg.Type() == runtime.TypeObject {
		fn, err := arg.AsObject().Get(runtime.SymbolKey(sym), arg)
		if err != nil {
			return runtime.Undefined, runtime.Undefined, err
		}
		if fn.IsCallable() {
			return arg, fn, nil
		}
	}
	pattern := ""
	if !arg.IsUndefined() {
		pattern = runtime.ToStringSimple(arg)
	}
	rx := runtime.NewObject(newRegExpObject(ctx, pattern, ""))
	fn, err := rx.AsObject().Get(runtime.SymbolKey(sym), rx)
	if err != nil {
		return runtime.Undefined, runtime.Undefined, err
	}
	return rx, fn, nil
}
