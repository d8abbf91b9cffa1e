package intrinsics

import (
	"fmt"
	"time"

	"ecmacore/pkg/runtime"
)

// DateInitializer builds the Date constructor and its prototype. The
// teacher's date_init.go only wires a bare Date.now() static method with no
// instances; SPEC_FULL.md's domain stack calls for the full Date object
// (construction, getters/setters, ISO formatting), so this file keeps the
// teacher's stdlib `time` foundation but grounds the rest of the shape on
// spec.md's Date semantics directly: UTC-internal storage (time.Time kept
// in UTC in Object.Slots["time"]) with local-zone display computed on
// demand via time.Time.Local, since pkg/runtime has no persistent instance
// fields beyond Slots.
type DateInitializer struct{}

func (d *DateInitializer) Name() string  { return "Date" }
func (d *DateInitializer) Priority() int { return PriorityDate }

func dateTime(this runtime.Value) time.Time {
	if this.Type() != runtime.TypeObject {
		return time.Unix(0, 0).UTC()
	}
	if t, ok := this.AsObject().Slots["time"].(time.Time); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

func setDateTime(this runtime.Value, t time.Time) {
	if this.Type() != runtime.TypeObject {
		return
	}
	if this.AsObject().Slots == nil {
		this.AsObject().Slots = map[string]interface{}{}
	}
	this.AsObject().Slots["time"] = t.UTC()
}

func (d *DateInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Date"
	ctx.SetIntrinsic("DatePrototype", proto)

	getter := func(f func(time.Time) float64) runtime.CallFn {
		return func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.NewNumber(f(dateTime(this))), nil
		}
	}

	proto.DefineMethod("getTime", 0, getter(func(t time.Time) float64 { return float64(t.UnixMilli()) }))
	proto.DefineMethod("valueOf", 0, getter(func(t time.Time) float64 { return float64(t.UnixMilli()) }))
	proto.DefineMethod("getFullYear", 0, getter(func(t time.Time) float64 { return float64(t.Local().Year()) }))
	proto.DefineMethod("getUTCFullYear", 0, getter(func(t time.Time) float64 { return float64(t.Year()) }))
	proto.DefineMethod("getMonth", 0, getter(func(t time.Time) float64 { return float64(t.Local().Month() - 1) }))
	proto.DefineMethod("getUTCMonth", 0, getter(func(t time.Time) float64 { return float64(t.Month() - 1) }))
	proto.DefineMethod("getDate", 0, getter(func(t time.Time) float64 { return float64(t.Local().Day()) }))
	proto.DefineMethod("getUTCDate", 0, getter(func(t time.Time) float64 { return float64(t.Day()) }))
	proto.DefineMethod("getDay", 0, getter(func(t time.Time) float64 { return float64(t.Local().Weekday()) }))
	proto.DefineMethod("getUTCDay", 0, getter(func(t time.Time) float64 { return float64(t.Weekday()) }))
	proto.DefineMethod("getHours", 0, getter(func(t time.Time) float64 { return float64(t.Local().Hour()) }))
	proto.DefineMethod("getUTCHours", 0, getter(func(t time.Time) float64 { return float64(t.Hour()) }))
	proto.DefineMethod("getMinutes", 0, getter(func(t time.Time) float64 { return float64(t.Local().Minute()) }))
	proto.DefineMethod("getUTCMinutes", 0, getter(func(t time.Time) float64 { return float64(t.Minute()) }))
	proto.DefineMethod("getSeconds", 0, getter(func(t time.Time) float64 { return float64(t.Local().Second()) }))
	proto.DefineMethod("getUTCSeconds", 0, getter(func(t time.Time) float64 { return float64(t.Second()) }))
	proto.DefineMethod("getMilliseconds", 0, getter(func(t time.Time) float64 { return float64(t.Local().Nanosecond() / 1e6) }))
	proto.DefineMethod("getUTCMilliseconds", 0, getter(func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }))
	proto.DefineMethod("getTimezoneOffset", 0, getter(func(t time.Time) float64 {
		_, offset := t.Local().Zone()
		return float64(-offset / 60)
	}))

	proto.DefineMethod("setTime", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		ms, _ := arg0(args)
		t := time.UnixMilli(int64(ms)).UTC()
		setDateTime(this, t)
		return runtime.NewNumber(float64(t.UnixMilli())), nil
	})
	proto.DefineMethod("setFullYear", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		year := int(numArgOr(args, 0, float64(t.Year())))
		month := t.Month()
		if len(args) > 1 {
			month = time.Month(int(args[1].ToNumber()) + 1)
		}
		day := t.Day()
		if len(args) > 2 {
			day = int(args[2].ToNumber())
		}
		nt := time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setMonth", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		month := time.Month(int(numArgOr(args, 0, float64(t.Month()-1))) + 1)
		day := t.Day()
		if len(args) > 1 {
			day = int(args[1].ToNumber())
		}
		nt := time.Date(t.Year(), month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setDate", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		day := int(numArgOr(args, 0, float64(t.Day())))
		nt := time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setHours", 4, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		h := int(numArgOr(args, 0, float64(t.Hour())))
		m := int(numArgOr(args, 1, float64(t.Minute())))
		s := int(numArgOr(args, 2, float64(t.Second())))
		ns := int(numArgOr(args, 3, float64(t.Nanosecond()/1e6))) * 1e6
		nt := time.Date(t.Year(), t.Month(), t.Day(), h, m, s, ns, t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setMinutes", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		m := int(numArgOr(args, 0, float64(t.Minute())))
		s := int(numArgOr(args, 1, float64(t.Second())))
		ns := int(numArgOr(args, 2, float64(t.Nanosecond()/1e6))) * 1e6
		nt := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, s, ns, t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setSeconds", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		s := int(numArgOr(args, 0, float64(t.Second())))
		ns := int(numArgOr(args, 1, float64(t.Nanosecond()/1e6))) * 1e6
		nt := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), s, ns, t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})
	proto.DefineMethod("setMilliseconds", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		ns := int(numArgOr(args, 0, float64(t.Nanosecond()/1e6))) * 1e6
		nt := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), ns, t.Location())
		setDateTime(this, nt)
		return runtime.NewNumber(float64(nt.UTC().UnixMilli())), nil
	})

	proto.DefineMethod("toISOString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this)
		return runtime.NewString(t.Format("2006-01-02T15:04:05.000Z")), nil
	})
	proto.DefineMethod("toJSON", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this)
		return runtime.NewString(t.Format("2006-01-02T15:04:05.000Z")), nil
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")), nil
	})
	proto.DefineMethod("toDateString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("Mon Jan 02 2006")), nil
	})
	proto.DefineMethod("toTimeString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("15:04:05 GMT-0700 (MST)")), nil
	})
	proto.DefineMethod("toUTCString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this)
		return runtime.NewString(t.Format("Mon, 02 Jan 2006 15:04:05 GMT")), nil
	})
	proto.DefineMethod("toLocaleDateString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("1/2/2006")), nil
	})
	proto.DefineMethod("toLocaleTimeString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("3:04:05 PM")), nil
	})
	proto.DefineMethod("toLocaleString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t := dateTime(this).Local()
		return runtime.NewString(t.Format("1/2/2006, 3:04:05 PM")), nil
	})

	ctor := runtime.NewNativeFunction("Date", 7, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(time.Now().Local().Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "Date"
		obj.Slots = map[string]interface{}{}
		switch len(args) {
		case 0:
			setDateTime(runtime.NewObject(obj), time.Now())
		case 1:
			if args[0].IsString() {
				t, err := parseDateString(args[0].AsString())
				if err != nil {
					setDateTime(runtime.NewObject(obj), time.Unix(0, 0))
					obj.Slots["invalid"] = true
				} else {
					setDateTime(runtime.NewObject(obj), t)
				}
			} else {
				ms := args[0].ToNumber()
				setDateTime(runtime.NewObject(obj), time.UnixMilli(int64(ms)))
			}
		default:
			year := int(args[0].ToNumber())
			month := time.Month(int(numArgOr(args, 1, 0)) + 1)
			day := int(numArgOr(args, 2, 1))
			hour := int(numArgOr(args, 3, 0))
			min := int(numArgOr(args, 4, 0))
			sec := int(numArgOr(args, 5, 0))
			ms := int(numArgOr(args, 6, 0))
			if year >= 0 && year <= 99 {
				year += 1900
			}
			nt := time.Date(year, month, day, hour, min, sec, ms*1e6, time.Local)
			setDateTime(runtime.NewObject(obj), nt)
		}
		return runtime.NewObject(obj), nil
	}
	ctor.DefineMethod("now", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(time.Now().UnixMilli())), nil
	})
	ctor.DefineMethod("parse", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(nan()), nil
		}
		t, err := parseDateString(runtime.ToStringSimple(args[0]))
		if err != nil {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(float64(t.UnixMilli())), nil
	})
	ctor.DefineMethod("UTC", 7, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(nan()), nil
		}
		year := int(args[0].ToNumber())
		if year >= 0 && year <= 99 {
			year += 1900
		}
		month := time.Month(int(numArgOr(args, 1, 0)) + 1)
		day := int(numArgOr(args, 2, 1))
		hour := int(numArgOr(args, 3, 0))
		min := int(numArgOr(args, 4, 0))
		sec := int(numArgOr(args, 5, 0))
		ms := int(numArgOr(args, 6, 0))
		t := time.Date(year, month, day, hour, min, sec, ms*1e6, time.UTC)
		return runtime.NewNumber(float64(t.UnixMilli())), nil
	})
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctx.DefineGlobal("Date", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Date", ctor)
	return nil
}

func numArgOr(args []runtime.Value, idx int, fallback float64) float64 {
	if idx >= len(args) {
		return fallback
	}
	return args[idx].ToNumber()
}

func parseDateString(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"Mon Jan 02 2006 15:04:05 GMT-0700 (MST)",
		"Mon, 02 Jan 2006 15:04:05 GMT",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date string: %s", s)
}
