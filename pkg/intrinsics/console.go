package intrinsics

import (
	"fmt"
	"time"

	"ecmacore/pkg/runtime"
)

// ConsoleInitializer builds the console namespace object. Grounded
// method-for-method on the teacher's console_init.go (same log/error/warn/
// info/debug/trace/clear/count/countReset/time/timeEnd/group/
// groupCollapsed/groupEnd set, same per-level prefixing and ANSI clear
// sequence), using runtime.Value.DebugString in place of the teacher's
// Value.Inspect for argument formatting.
type ConsoleInitializer struct{}

func (c *ConsoleInitializer) Name() string  { return "console" }
func (c *ConsoleInitializer) Priority() int { return PriorityConsole }

func formatConsoleArgs(args []runtime.Value) string {
	if len(args) == 0 {
		return ""
	}
	result := args[0].DebugString()
	for i := 1; i < len(args); i++ {
		result += " " + args[i].DebugString()
	}
	return result
}

func (c *ConsoleInitializer) Init(ctx *Context) error {
	obj := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	timers := make(map[string]time.Time)
	counts := make(map[string]int)

	obj.DefineMethod("log", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Println(formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("error", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("ERROR: %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("warn", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("WARN: %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("info", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("INFO: %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("debug", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("DEBUG: %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("trace", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("TRACE: %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("clear", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Print("\033[2J\033[H")
		return runtime.Undefined, nil
	})
	obj.DefineMethod("count", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		label := "default"
		if len(args) > 0 {
			label = runtime.ToStringSimple(args[0])
		}
		counts[label]++
		fmt.Printf("%s: %d\n", label, counts[label])
		return runtime.Undefined, nil
	})
	obj.DefineMethod("countReset", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		label := "default"
		if len(args) > 0 {
			label = runtime.ToStringSimple(args[0])
		}
		counts[label] = 0
		fmt.Printf("%s: 0\n", label)
		return runtime.Undefined, nil
	})
	obj.DefineMethod("time", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		label := "default"
		if len(args) > 0 {
			label = runtime.ToStringSimple(args[0])
		}
		timers[label] = time.Now()
		return runtime.Undefined, nil
	})
	obj.DefineMethod("timeEnd", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		label := "default"
		if len(args) > 0 {
			label = runtime.ToStringSimple(args[0])
		}
		if start, ok := timers[label]; ok {
			elapsed := time.Since(start)
			fmt.Printf("%s: %.3fms\n", label, float64(elapsed.Nanoseconds())/1e6)
			delete(timers, label)
		} else {
			fmt.Printf("Timer '%s' does not exist\n", label)
		}
		return runtime.Undefined, nil
	})
	obj.DefineMethod("group", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("▼ %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("groupCollapsed", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		fmt.Printf("▶ %s\n", formatConsoleArgs(args))
		return runtime.Undefined, nil
	})
	obj.DefineMethod("groupEnd", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, nil
	})

	ctx.DefineGlobal("console", runtime.NewObject(obj))
	ctx.SetIntrinsic("console", obj)
	return nil
}
