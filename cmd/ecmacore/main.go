// Command ecmacore is the reference embedding of pkg/engine: a REPL and
// script runner exercising the L9 facade end to end, grounded on the
// teacher's cmd/paserati/main.go (flag surface, REPL loop, exit codes)
// with the type-checking flags (-ast, -no-typecheck, -bytecode) dropped
// since this core has no static checker or bytecode compiler to inspect.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"ecmacore/pkg/engine"
)

func main() {
	exprFlag := flag.String("e", "", "Run the given expression and exit")
	timeoutFlag := flag.Int64("timeout-ms", 0, "Abort execution after N milliseconds (0 = unlimited)")
	strictFlag := flag.Bool("strict", false, "Force strict mode")
	flag.Parse()

	opts := engine.Options{
		Strict:    *strictFlag,
		TimeoutMs: *timeoutFlag,
	}

	if *exprFlag != "" {
		runSource(opts, *exprFlag)
		return
	}

	switch flag.NArg() {
	case 0:
		runRepl(opts)
	case 1:
		runFile(opts, flag.Arg(0))
	default:
		fmt.Fprintf(os.Stderr, "Usage: ecmacore [script] or ecmacore -e \"expression\"\n")
		os.Exit(64)
	}
}

func runSource(opts engine.Options, source string) {
	eng, err := engine.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Engine init error: %s\n", err)
		os.Exit(70)
	}
	value, err := eng.Execute(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(70)
	}
	if !value.IsUndefined() {
		fmt.Println(value.DebugString())
	}
}

func runFile(opts engine.Options, filename string) {
	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file '%s': %s\n", filename, err)
		os.Exit(70)
	}
	eng, err := engine.NewWithBaseDir(opts, dirOf(filename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Engine init error: %s\n", err)
		os.Exit(70)
	}
	value, err := eng.Execute(string(sourceBytes))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(70)
	}
	if !value.IsUndefined() {
		fmt.Println(value.DebugString())
	}
}

func dirOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '/' {
			return filename[:i]
		}
	}
	return "."
}

func runRepl(opts engine.Options) {
	reader := bufio.NewReader(os.Stdin)
	eng, err := engine.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Engine init error: %s\n", err)
		os.Exit(70)
	}

	fmt.Println("ecmacore (Ctrl+D to exit)")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			return
		}
		if line == "\n" {
			continue
		}
		value, err := eng.Execute(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			continue
		}
		eng.DrainMicrotasks()
		if !value.IsUndefined() {
			fmt.Println(value.DebugString())
		}
	}
}
