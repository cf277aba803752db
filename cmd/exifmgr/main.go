package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhhhsong/exifmgr/internal/app"
)

func main() {
	var opts app.Options

	pflag.BoolVarP(&opts.Show, "show", "S", false, "Display extended file metadata")
	pflag.BoolVarP(&opts.Check, "check", "X", false, "Check filenames against metadata; files that fail are not renamed")
	pflag.BoolVarP(&opts.Rename, "rename", "N", false, "Rename files to their canonical names")

	pflag.BoolVarP(&opts.Recursive, "recursive", "r", false, "Scan subdirectories when an input is a folder")
	pflag.StringVarP(&opts.SourceZone, "src-tz", "s", "", "Timezone for interpreting stored timestamps, overriding device history (IANA name or UTC+HHMM)")
	pflag.StringVar(&opts.DisplayZone, "disp-tz", "", "Additional timezone for displaying resolved timestamps")
	pflag.StringVar(&opts.ConfigDir, "cfgdir", "", "Directory holding the device config files (defaults to the home directory)")
	pflag.StringVarP(&opts.OutputDir, "outdir", "o", "", "Move renamed files into this directory")
	pflag.StringVar(&opts.StemPrefix, "prefix", "DSC", "Canonical filename prefix")
	pflag.BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt to resolve ambiguous timestamps")
	pflag.BoolVarP(&opts.DryRun, "dry-run", "n", false, "Print suggested names without touching any file")
	pflag.IntVarP(&opts.Workers, "workers", "j", 0, "Parallel metadata workers (0 = number of CPUs)")
	pflag.StringVarP(&opts.LogLevel, "log-level", "l", "info", "Logging level for the log file")
	pflag.StringVar(&opts.LogFile, "log-file", "", "Optional log file path (defaults to a file next to the binary)")

	pflag.Parse()

	opts.Inputs = pflag.Args()
	opts.PrintSummary = true

	ctx := context.Background()
	if _, err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "exifmgr failed: %v\n", err)
		os.Exit(1)
	}
}
