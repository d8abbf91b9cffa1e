package intrinsics

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"ecmacore/pkg/runtime"
)

// StringInitializer builds String.prototype's method set and the String
// constructor/boxing. Grounded on the teacher's string_init.go method
// list; toLowerCase/toUpperCase go through golang.org/x/text/cases rather
// than strings.ToLower/ToUpper so locale-sensitive full case folding
// (e.g. German sharp s) matches the teacher's own go.mod dependency
// instead of ASCII-only byte folding.
type StringInitializer struct{}

func (s *StringInitializer) Name() string  { return "String" }
func (s *StringInitializer) Priority() int { return PriorityString }

func (s *StringInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "String"
	ctx.SetIntrinsic("StringPrototype", proto)

	selfString := func(this runtime.Value) string {
		if this.IsString() {
			return this.AsString()
		}
		if this.Type() == runtime.TypeObject {
			if raw, ok := this.AsObject().Slots["primitive"]; ok {
				if v, ok := raw.(runtime.Value); ok {
					return v.AsString()
				}
			}
		}
		return ""
	}

	proto.DefineMethod("charAt", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		idx := int(runtime.ToInteger(firstArgOrUndefined(args).ToNumber()))
		return runtime.NewString(runtime.UTF16At(selfString(this), idx)), nil
	})
	proto.DefineMethod("charCodeAt", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		idx := int(runtime.ToInteger(firstArgOrUndefined(args).ToNumber()))
		unit, ok := runtime.UTF16CodeUnitAt(selfString(this), idx)
		if !ok {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(float64(unit)), nil
	})
	proto.DefineMethod("slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		n := runtime.UTF16Length(str)
		start, end := sliceBounds(args, n)
		return runtime.NewString(runtime.UTF16Slice(str, start, end)), nil
	})
	proto.DefineMethod("substring", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		n := runtime.UTF16Length(str)
		start := clampNonNeg(argOr(args, 0, runtime.NewNumber(0)).ToNumber(), n)
		end := n
		if len(args) > 1 && !args[1].IsUndefined() {
			end = clampNonNeg(args[1].ToNumber(), n)
		}
		if start > end {
			start, end = end, start
		}
		return runtime.NewString(runtime.UTF16Slice(str, start, end)), nil
	})
	proto.DefineMethod("indexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		search := runtime.ToStringSimple(firstArgOrUndefined(args))
		return runtime.NewNumber(float64(strings.Index(str, search))), nil
	})
	proto.DefineMethod("lastIndexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		search := runtime.ToStringSimple(firstArgOrUndefined(args))
		return runtime.NewNumber(float64(strings.LastIndex(str, search))), nil
	})
	proto.DefineMethod("includes", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(strings.Contains(selfString(this), runtime.ToStringSimple(firstArgOrUndefined(args)))), nil
	})
	proto.DefineMethod("startsWith", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(strings.HasPrefix(selfString(this), runtime.ToStringSimple(firstArgOrUndefined(args)))), nil
	})
	proto.DefineMethod("endsWith", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(strings.HasSuffix(selfString(this), runtime.ToStringSimple(firstArgOrUndefined(args)))), nil
	})
	proto.DefineMethod("toLowerCase", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(cases.Lower(language.Und).String(selfString(this))), nil
	})
	proto.DefineMethod("toUpperCase", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(cases.Upper(language.Und).String(selfString(this))), nil
	})
	proto.DefineMethod("normalize", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		form := "NFC"
		if len(args) > 0 && !args[0].IsUndefined() {
			form = runtime.ToStringSimple(args[0])
		}
		var f norm.Form
		switch form {
		case "NFC":
			f = norm.NFC
		case "NFD":
			f = norm.NFD
		case "NFKC":
			f = norm.NFKC
		case "NFKD":
			f = norm.NFKD
		default:
			return runtime.Undefined, runtime.NewRangeErrorValue("The normalization form should be one of NFC, NFD, NFKC, NFKD.")
		}
		return runtime.NewString(f.String(selfString(this))), nil
	})
	proto.DefineMethod("trim", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(strings.TrimSpace(selfString(this))), nil
	})
	proto.DefineMethod("trimStart", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(strings.TrimLeft(selfString(this), " \t\n\r\v\f")), nil
	})
	proto.DefineMethod("trimEnd", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(strings.TrimRight(selfString(this), " \t\n\r\v\f")), nil
	})
	proto.DefineMethod("repeat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := int(runtime.ToInteger(firstArgOrUndefined(args).ToNumber()))
		if n < 0 {
			return runtime.Undefined, runtime.NewTypeErrorValue("Invalid count value")
		}
		return runtime.NewString(strings.Repeat(selfString(this), n)), nil
	})
	proto.DefineMethod("concat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := selfString(this)
		for _, a := range args {
			out += runtime.ToStringSimple(a)
		}
		return runtime.NewString(out), nil
	})
	proto.DefineMethod("padStart", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(padString(selfString(this), args, true)), nil
	})
	proto.DefineMethod("padEnd", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(padString(selfString(this), args, false)), nil
	})
	proto.DefineMethod("split", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		sepArg := firstArgOrUndefined(args)
		if sepArg.Type() == runtime.TypeObject {
			splitFn, err := sepArg.AsObject().Get(runtime.SymbolKey(ctx.Realm.Symbols.Split), sepArg)
			if err != nil {
				return runtime.Undefined, err
			}
			if splitFn.IsCallable() {
				return runtime.Call(splitFn, sepArg, []runtime.Value{runtime.NewString(str), argOr(args, 1, runtime.Undefined)})
			}
		}
		if sepArg.IsUndefined() {
			return runtime.NewObject(arrayOf(ctx, []runtime.Value{runtime.NewString(str)})), nil
		}
		sep := runtime.ToStringSimple(sepArg)
		var parts []string
		if sep == "" {
			for _, r := range str {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(str, sep)
		}
		items := make([]runtime.Value, len(parts))
		for i, p := range parts {
			items[i] = runtime.NewString(p)
		}
		return runtime.NewObject(arrayOf(ctx, items)), nil
	})
	proto.DefineMethod("match", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		receiver, fn, err := matchableOf(ctx, firstArgOrUndefined(args), ctx.Realm.Symbols.Match)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.Call(fn, receiver, []runtime.Value{runtime.NewString(str)})
	})
	proto.DefineMethod("search", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		receiver, fn, err := matchableOf(ctx, firstArgOrUndefined(args), ctx.Realm.Symbols.Search)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.Call(fn, receiver, []runtime.Value{runtime.NewString(str)})
	})
	proto.DefineMethod("replace", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		searchArg := firstArgOrUndefined(args)
		if searchArg.Type() == runtime.TypeObject {
			replaceFn, err := searchArg.AsObject().Get(runtime.SymbolKey(ctx.Realm.Symbols.Replace), searchArg)
			if err != nil {
				return runtime.Undefined, err
			}
			if replaceFn.IsCallable() {
				return runtime.Call(replaceFn, searchArg, []runtime.Value{runtime.NewString(str), argOr(args, 1, runtime.Undefined)})
			}
		}
		search := runtime.ToStringSimple(searchArg)
		repl := argOr(args, 1, runtime.Undefined)
		idx := strings.Index(str, search)
		if idx < 0 {
			return runtime.NewString(str), nil
		}
		replStr, err := resolveReplacement(repl, search, idx, str)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewString(str[:idx] + replStr + str[idx+len(search):]), nil
	})
	proto.DefineMethod("replaceAll", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		searchArg := firstArgOrUndefined(args)
		if searchArg.Type() == runtime.TypeObject && searchArg.AsObject().Class == "RegExp" {
			global, err := searchArg.AsObject().Get(runtime.StringKey("global"), searchArg)
			if err != nil {
				return runtime.Undefined, err
			}
			if !global.ToBoolean() {
				return runtime.Undefined, runtime.NewTypeErrorValue("String.prototype.replaceAll must be called with a global RegExp")
			}
			replaceFn, err := searchArg.AsObject().Get(runtime.SymbolKey(ctx.Realm.Symbols.Replace), searchArg)
			if err != nil {
				return runtime.Undefined, err
			}
			if replaceFn.IsCallable() {
				return runtime.Call(replaceFn, searchArg, []runtime.Value{runtime.NewString(str), argOr(args, 1, runtime.Undefined)})
			}
		}
		search := runtime.ToStringSimple(searchArg)
		repl := argOr(args, 1, runtime.Undefined)
		var b strings.Builder
		rest := str
		offset := 0
		for {
			idx := strings.Index(rest, search)
			if idx < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:idx])
			replStr, err := resolveReplacement(repl, search, offset+idx, str)
			if err != nil {
				return runtime.Undefined, err
			}
			b.WriteString(replStr)
			adv := idx + len(search)
			if len(search) == 0 {
				adv = idx + 1
			}
			if adv > len(rest) {
				adv = len(rest)
			}
			rest = rest[adv:]
			offset += adv
		}
		return runtime.NewString(b.String()), nil
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(selfString(this)), nil
	})
	proto.DefineMethod("valueOf", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(selfString(this)), nil
	})
	proto.DefineMethod("at", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		str := selfString(this)
		n := runtime.UTF16Length(str)
		idx := int(runtime.ToInteger(firstArgOrUndefined(args).ToNumber()))
		if idx < 0 {
			idx += n
		}
		s := runtime.UTF16At(str, idx)
		if s == "" {
			return runtime.Undefined, nil
		}
		return runtime.NewString(s), nil
	})
	lengthGetter := runtime.NewObject(runtime.NewNativeFunction("get length", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(runtime.UTF16Length(selfString(this)))), nil
	}))
	proto.DefineOwnProperty(runtime.StringKey("length"), runtime.PropertyDescriptor{Get: &lengthGetter, Enumerable: boolPtr(false), Configurable: boolPtr(true)})

	ctor := runtime.NewNativeFunction("String", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewString(""), nil
		}
		return runtime.NewString(runtime.ToStringSimple(args[0])), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		str := ""
		if len(args) > 0 {
			str = runtime.ToStringSimple(args[0])
		}
		box := &runtime.Object{Kind: runtime.KindStringExotic, Class: "String", Prototype: proto, Extensible: true}
		box.Slots = map[string]interface{}{"primitive": runtime.NewString(str)}
		return runtime.NewObject(box), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctor.DefineMethod("fromCharCode", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		units := make([]uint16, len(args))
		for i, a := range args {
			units[i] = uint16(int64(a.ToNumber()))
		}
		return runtime.NewString(string(utf16.Decode(units))), nil
	})

	ctx.DefineGlobal("String", runtime.NewObject(ctor))
	ctx.SetIntrinsic("String", ctor)
	return nil
}

func resolveReplacement(repl runtime.Value, matched string, idx int, str string) (string, error) {
	if repl.IsCallable() {
		r, err := runtime.Call(repl, runtime.Undefined, []runtime.Value{
			runtime.NewString(matched), runtime.NewNumber(float64(idx)), runtime.NewString(str),
		})
		if err != nil {
			return "", err
		}
		return runtime.ToStringSimple(r), nil
	}
	template := runtime.ToStringSimple(repl)
	return getSubstitution(matched, str, idx, nil, runtime.Undefined, template), nil
}

// getSubstitution implements the ECMA-262 GetSubstitution abstract
// operation: it expands $$, $&, $`, $', $n/$nn and $<name> in a
// replacement template against a single match.
func getSubstitution(matched, str string, position int, captures []runtime.Value, namedCaptures runtime.Value, replacement string) string {
	var b strings.Builder
	tailPos := position + len(matched)
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' || i == len(replacement)-1 {
			b.WriteByte(c)
			continue
		}
		next := replacement[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(matched)
			i++
		case next == '`':
			b.WriteString(str[:position])
			i++
		case next == '\'':
			b.WriteString(str[tailPos:])
			i++
		case next >= '0' && next <= '9':
			j := i + 1
			numEnd := j + 1
			if numEnd < len(replacement) && replacement[numEnd] >= '0' && replacement[numEnd] <= '9' {
				numEnd++
			}
			consumed := false
			for end := numEnd; end > j; end-- {
				n, err := strconv.Atoi(replacement[j:end])
				if err == nil && n >= 1 && n <= len(captures) {
					if !captures[n-1].IsUndefined() {
						b.WriteString(runtime.ToStringSimple(captures[n-1]))
					}
					i = end - 1
					consumed = true
					break
				}
			}
			if !consumed {
				b.WriteByte(c)
			}
		case next == '<' && namedCaptures.Type() == runtime.TypeObject:
			end := strings.IndexByte(replacement[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)
				break
			}
			name := replacement[i+2 : i+2+end]
			v, _ := namedCaptures.AsObject().Get(runtime.StringKey(name), namedCaptures)
			if !v.IsUndefined() {
				b.WriteString(runtime.ToStringSimple(v))
			}
			i = i + 2 + end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func padString(str string, args []runtime.Value, start bool) string {
	targetLen := int(runtime.ToInteger(firstArgOrUndefined(args).ToNumber()))
	n := runtime.UTF16Length(str)
	if targetLen <= n {
		return str
	}
	pad := " "
	if len(args) > 1 && !args[1].IsUndefined() {
		pad = runtime.ToStringSimple(args[1])
	}
	if pad == "" {
		return str
	}
	need := targetLen - n
	var b strings.Builder
	for b.Len() < need {
		b.WriteString(pad)
	}
	padding := runtime.UTF16Slice(b.String(), 0, need)
	if start {
		return padding + str
	}
	return str + padding
}

func clampNonNeg(n float64, length int) int {
	i := int(runtime.ToInteger(n))
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func boolPtr(b bool) *bool { return &b }

func nan() float64 { var z float64; return z / z }
