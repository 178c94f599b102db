// Command bringup-trace views and analyzes bring-up protocol trace files.
//
// Trace files are written by bringup-ctl and bringup-bridge when run with
// the -trace flag.
//
// Usage:
//
//	bringup-trace <command> [flags] <file.btrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View lifecycle events only
//	bringup-trace view -component lifecycle run.btrace
//
//	# All accesses to one register
//	bringup-trace view -addr 0x3000 run.btrace
//
//	# Export to CSV
//	bringup-trace export -format csv -o run.csv run.btrace
//
//	# Keep one session
//	bringup-trace filter -session 5e55a1d0-... -o one.btrace run.btrace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ssbringup/bringup-go/cmd/bringup-trace/commands"
)

const usage = `bringup-trace - Bring-up Protocol Trace Analyzer

Usage:
  bringup-trace <command> [flags] <file.btrace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "bringup-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseWithPath parses fs and returns the single trace file argument.
func parseWithPath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func newFlagSet(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "bringup-trace %s - %s\n\nUsage:\n  bringup-trace %s [flags] <file.btrace>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format")
	component := fs.String("component", "", "Filter by component (port, mutex, lifecycle, stream, mailbox, recovery, bridge)")
	category := fs.String("category", "", "Filter by category (access, state, outcome, error, frame)")
	addr := fs.String("addr", "", "Filter access events by register address")
	path := parseWithPath(fs, args)

	var filter commands.ViewFilter
	if *component != "" {
		c, err := commands.ParseComponentFlag(*component)
		if err != nil {
			fail(err)
		}
		filter.Component = &c
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}
	if *addr != "" {
		a, err := commands.ParseAddrFlag(*addr)
		if err != nil {
			fail(err)
		}
		filter.Addr = &a
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSONL or CSV")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseWithPath(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file")
	var opts commands.FilterOptions
	fs.StringVar(&opts.Output, "o", "", "Output file (required)")
	fs.StringVar(&opts.SessionID, "session", "", "Filter by session ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Component, "component", "", "Filter by component")
	fs.StringVar(&opts.Category, "category", "", "Filter by category")
	fs.StringVar(&opts.Addr, "addr", "", "Filter access events by register address")
	path := parseWithPath(fs, args)

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, opts.Output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace file")
	path := parseWithPath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
