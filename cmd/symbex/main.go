// cmd/symbex/main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/jbse-go/symbex/internal/algorithm"
	"github.com/jbse-go/symbex/internal/checkpoint"
	"github.com/jbse-go/symbex/internal/engine"
	"github.com/jbse-go/symbex/internal/formatter"
	"github.com/jbse-go/symbex/internal/observer"
	"github.com/jbse-go/symbex/internal/runner"
	"github.com/jbse-go/symbex/internal/state"
	"github.com/jbse-go/symbex/internal/value"
)

const VERSION = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "run":
		runCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "symbex: unknown command %q\n\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("symbex - symbolic bytecode execution engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  symbex run <demo> [flags]   Explore a built-in demo program  (alias: r)")
	fmt.Println("  symbex help                 Show this message")
	fmt.Println("  symbex version              Show version information")
	fmt.Println()
	fmt.Printf("Available demos: %s\n", strings.Join(demoNames(), ", "))
	fmt.Println()
	fmt.Println("Run flags:")
	fmt.Println("  -depth N          depthScope: abandon a path past depth N (0 = unbounded)")
	fmt.Println("  -count N          countScope: stop after exploring N states (0 = unbounded)")
	fmt.Println("  -heap N           heapScope: cap live instances per class (0 = unbounded)")
	fmt.Println("  -timeout DURATION wall-clock budget for the whole run, e.g. 5s (0 = unbounded)")
	fmt.Println("  -region PREFIX    identifierSubregion: only explore identifiers with this prefix")
	fmt.Println("  -debug            log every fork to stderr")
	fmt.Println("  -checkpoint DSN   persist the frontier to a SQL backend (see -backend)")
	fmt.Println("  -backend NAME     sqlite (default), postgres, mysql, or mssql")
	fmt.Println("  -observe ADDR     serve an observedVariables websocket feed at ADDR (e.g. :8090)")
}

func showVersion() {
	fmt.Printf("symbex %s\n", VERSION)
}

func runCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "symbex run: a demo name is required")
		showUsage()
		os.Exit(1)
	}
	demoName := args[0]
	build, ok := demos[demoName]
	if !ok {
		fmt.Fprintf(os.Stderr, "symbex run: unknown demo %q (available: %s)\n", demoName, strings.Join(demoNames(), ", "))
		os.Exit(1)
	}

	flags := parseRunFlags(args[1:])

	prog := build()
	calc := value.DefaultCalculator()
	hierarchy, dp := newHierarchy(prog)

	ctx := &algorithm.Context{
		Hierarchy: hierarchy,
		DP:        dp,
		Pools:     prog.pools,
	}
	eng := engine.New(ctx, algorithm.DefaultCatalog())

	root := state.NewState(calc, hierarchy)
	cf, err := hierarchy.GetClassFile(prog.root.ClassName)
	if err != nil {
		log.Fatalf("symbex: loading root class: %v", err)
	}
	decl, ok := cf.FindMethod(prog.root.MemberName, prog.root.Descriptor)
	if !ok {
		log.Fatalf("symbex: root method %s not found", prog.root.String())
	}
	frame := state.NewFrame(decl.Signature, decl.Code, decl.MaxLocals)
	frame.Handlers = decl.Handlers
	root.PushFrame(frame)
	prog.setup(root, calc)

	cfg := runner.Config{
		RootMethod:          prog.root,
		DepthScope:          flags.depth,
		CountScope:          flags.count,
		HeapScope:           flags.heap,
		Timeout:             flags.timeout,
		IdentifierSubregion: flags.region,
		Debug:               flags.debug,
		Logger:              log.Default(),
	}

	var store *checkpoint.Store
	if flags.checkpointDSN != "" {
		store, err = checkpoint.Open(flags.backend, flags.checkpointDSN, "")
		if err != nil {
			log.Fatalf("symbex: opening checkpoint store: %v", err)
		}
		defer store.Close()
		fmt.Println(colorize(flags, "checkpoint", store.Diagnostics(0)))
	}

	var broadcaster *observer.Broadcaster
	var httpServer *http.Server
	if flags.observeAddr != "" {
		broadcaster = observer.New(log.Default())
		defer broadcaster.Close()
		mux := http.NewServeMux()
		mux.HandleFunc("/observe", broadcaster.Handler)
		httpServer = &http.Server{Addr: flags.observeAddr, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("symbex: observer server: %v", err)
			}
		}()
		cfg.Notifier = broadcaster
		fmt.Printf("observing on ws://%s/observe\n", flags.observeAddr)
	}

	if flags.debug {
		cfg.Hooks.AtContradiction = func(st *state.State, err error) {
			log.Printf("pruned id=%s: %v", st.Identifier, err)
		}
	}

	run := runner.New(eng, cfg)
	start := time.Now()
	report, err := run.Run(root)
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("symbex: run aborted: %v", err)
	}

	if store != nil {
		entries := make([]checkpoint.Entry, 0, len(report.Terminal))
		for _, st := range report.Terminal {
			entries = append(entries, checkpoint.Entry{Identifier: st.Identifier, SeqNumber: st.SeqNumber, Depth: st.Depth})
		}
		if err := store.SaveFrontier(entries); err != nil {
			log.Printf("symbex: saving checkpoint: %v", err)
		}
	}

	for _, st := range report.Terminal {
		fmt.Println(formatter.State(st))
	}

	fmt.Println(colorize(flags, "summary", fmt.Sprintf(
		"explored=%d terminal=%d pruned=%d unsupported=%d aborted=%v timedOut=%v elapsed=%s",
		report.Explored, len(report.Terminal), report.Pruned, report.Unsupported,
		report.Aborted, report.TimedOut, elapsed,
	)))

	if httpServer != nil {
		httpServer.Close()
	}
}

type runFlags struct {
	depth         int
	count         int
	heap          int
	timeout       time.Duration
	region        string
	debug         bool
	checkpointDSN string
	backend       string
	observeAddr   string
	color         bool
}

// parseRunFlags hand-parses the run subcommand's flags (no flag package
// indirection), mirroring cmd/sentra's own arg filtering for its run
// verb. Unrecognized flags are reported and exit the process.
func parseRunFlags(args []string) runFlags {
	f := runFlags{backend: "sqlite", color: isatty.IsTerminal(os.Stdout.Fd())}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		val := func() string {
			i++
			if i >= len(args) {
				log.Fatalf("symbex: flag %s requires a value", arg)
			}
			return args[i]
		}
		switch arg {
		case "-depth":
			f.depth = atoiOrFatal(val(), arg)
		case "-count":
			f.count = atoiOrFatal(val(), arg)
		case "-heap":
			f.heap = atoiOrFatal(val(), arg)
		case "-timeout":
			d, err := time.ParseDuration(val())
			if err != nil {
				log.Fatalf("symbex: invalid -timeout: %v", err)
			}
			f.timeout = d
		case "-region":
			f.region = val()
		case "-debug":
			f.debug = true
		case "-checkpoint":
			f.checkpointDSN = val()
		case "-backend":
			f.backend = val()
		case "-observe":
			f.observeAddr = val()
		case "-no-color":
			f.color = false
		default:
			log.Fatalf("symbex: unknown flag %q", arg)
		}
	}
	return f
}

func atoiOrFatal(s, flag string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("symbex: invalid value for %s: %v", flag, err)
	}
	return n
}

func colorize(f runFlags, label, msg string) string {
	if !f.color {
		return fmt.Sprintf("[%s] %s", label, msg)
	}
	return fmt.Sprintf("\x1b[36m[%s]\x1b[0m %s", label, msg)
}
