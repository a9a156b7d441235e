package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/scorewarp/scorewarper/internal/config"
	"github.com/scorewarp/scorewarper/pkg/core"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// requireFlags reports the first empty value among the named flags.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if fs.Lookup(name).Value.String() == "" {
			fmt.Fprintf(fs.Output(), "flag -%s is required\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func warpCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("warp", stderr)
	scorePath := fs.String("score", "", "rendered score `svg`")
	mapsPath := fs.String("maps", "", "performance alignment `json`")
	outPath := fs.String("out", "", "warped score output `svg`")
	individual := fs.Bool("individual", false, "separate chord members by their own onsets after the warp (overrides warp.individualNotes)")
	noRecord := fs.Bool("no-record", false, "do not record the run")
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "score", "maps", "out"); err != nil {
		return err
	}

	a, err := newApp(*configDir, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	warpCfg := config.GetWarpConfig()
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "individual" {
			warpCfg.IndividualNotes = *individual
		}
	})

	start := time.Now()
	sess, err := a.loadSession(*scorePath, *mapsPath, warpCfg)
	if err != nil {
		a.logger.Error("Failed to load session", "error", err)
		return err
	}

	sess.Warp()
	if warpCfg.IndividualNotes {
		sess.AdjustIndividualNotes()
	}

	if err := sess.Scene().WriteFile(*outPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", *outPath, err)
	}
	a.logger.Info("Wrote warped score", "path", *outPath)

	run := sess.Run()
	run.ScoreName = filepath.Base(*scorePath)
	run.PerformanceName = filepath.Base(*mapsPath)
	run.StartTime = start.UTC()
	run.Duration = time.Since(start)

	fmt.Fprintf(stdout, "%s: %d shifted, %d skipped, %d/%d events resolved, state %s\n",
		*outPath, run.Stats.Shifted, run.Stats.Skipped, run.Resolved, run.Range.Len(), run.State)

	if *noRecord {
		return nil
	}
	// the output is written; a failed record is logged but does not fail the command
	_ = a.recordRun(&run)
	return nil
}

func positionsCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("positions", stderr)
	scorePath := fs.String("score", "", "rendered score `svg`")
	mapsPath := fs.String("maps", "", "performance alignment `json`")
	outPath := fs.String("out", "", "output `json` (default stdout)")
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "score", "maps"); err != nil {
		return err
	}

	a, err := newApp(*configDir, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.loadSession(*scorePath, *mapsPath, config.GetWarpConfig())
	if err != nil {
		a.logger.Error("Failed to load session", "error", err)
		return err
	}

	w := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *outPath, err)
		}
		defer f.Close()
		w = f
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sess.Derived()); err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	a.logger.Info("Wrote positions", "samples", len(sess.Samples()), "missing", len(sess.MissingEvents()))
	return nil
}

func runsCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("runs", stderr)
	asJSON := fs.Bool("json", false, "print runs as JSON")
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*configDir, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	backend, err := createStorageBackend(config.GetStorageConfig(), a.slogManager)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer backend.Close()

	runs, err := backend.ListRuns()
	if err != nil {
		return err
	}

	if *asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}
	return printRuns(stdout, runs)
}

func printRuns(w io.Writer, runs []core.WarpRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSCORE\tPERFORMANCE\tSTATE\tRESOLVED\tMISSING\tSHIFTED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartTime.Format(time.RFC3339), r.ScoreName, r.PerformanceName, r.State,
			r.Resolved, r.Missing, r.Stats.Shifted, r.Stats.Skipped)
	}
	return tw.Flush()
}
