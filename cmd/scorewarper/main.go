package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"
)

const binaryName = "scorewarper"

// errUsage marks command line mistakes; the usage text has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "warp":
		err = warpCommand(args[1:], stdout, stderr)
	case "positions":
		err = positionsCommand(args[1:], stdout, stderr)
	case "runs":
		err = runsCommand(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "%s %s (built %s)\n", binaryName, CurrentVersion, BuildDate)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "%s: %v\n", binaryName, err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage: %[1]s <command> [flags]

Commands:
  warp       warp a rendered score to a performance and write the result
  positions  write the derived event positions of a score as JSON
  runs       list recorded warp runs
  version    print the version

Run '%[1]s <command> -h' for the flags of a command.
`, binaryName)
}
