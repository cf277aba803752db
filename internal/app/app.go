package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nir0k/logger"

	"github.com/jhhhsong/exifmgr/internal/config"
	"github.com/jhhhsong/exifmgr/internal/device"
	"github.com/jhhhsong/exifmgr/internal/media"
	"github.com/jhhhsong/exifmgr/internal/namecodec"
	"github.com/jhhhsong/exifmgr/internal/pipeline"
	"github.com/jhhhsong/exifmgr/internal/tzresolve"
)

// Summary aggregates per-file outcomes of one run.
type Summary struct {
	Processed  int
	Skipped    int
	Unchanged  int
	Failed     int
	MetaErrors int
	Matched    int
	Mismatched int
}

func (s Summary) String() string {
	return fmt.Sprintf("Finished. processed=%d skipped=%d unchanged=%d failed=%d meta_errors=%d matched=%d mismatched=%d",
		s.Processed, s.Skipped, s.Unchanged, s.Failed, s.MetaErrors, s.Matched, s.Mismatched)
}

// Run is the main entry point for the CLI workflow.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := logger.LogConfig{
		FilePath:       opts.LogFile,
		Format:         "standard",
		FileLevel:      opts.LogLevel,
		ConsoleLevel:   "fatal",
		ConsoleOutput:  false,
		EnableRotation: true,
		RotationConfig: logger.RotationConfig{
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
	logInstance, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	infof := logInstance.Infof
	warnf := logInstance.Warningf
	errorf := logInstance.Errorf

	infof("Starting exifmgr with inputs=%v recursive=%t show=%t check=%t rename=%t srcZone=%q cfgdir=%s dryRun=%t interactive=%t",
		opts.Inputs, opts.Recursive, opts.Show, opts.Check, opts.Rename, opts.SourceZone, opts.ConfigDir, opts.DryRun, opts.Interactive)

	tmpl, err := namecodec.NewTemplate(opts.StemPrefix)
	if err != nil {
		return nil, err
	}

	var override *tzresolve.Zone
	if opts.SourceZone != "" {
		z, err := tzresolve.LoadZone(opts.SourceZone)
		if err != nil {
			return nil, err
		}
		override = &z
	}
	var display *tzresolve.Zone
	if opts.DisplayZone != "" {
		z, err := tzresolve.LoadZone(opts.DisplayZone)
		if err != nil {
			return nil, err
		}
		display = &z
	}

	entries, err := config.LoadDevices(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	registry, err := device.NewRegistry(entries)
	if err != nil {
		return nil, fmt.Errorf("device configuration: %w", err)
	}
	infof("Device registry loaded with %d devices from %s", registry.Len(), opts.ConfigDir)

	files, err := media.CollectFiles(opts.Inputs, opts.Recursive)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var records []*pipeline.Record

	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !media.SupportedImage(path) {
			warnf("Skipping unsupported file: %s", path)
			summary.Skipped++
			continue
		}

		if opts.Show {
			printDetails(path)
		}

		meta, err := media.ReadMetadata(path)
		if err != nil {
			warnf("Failed to read metadata for %s: %v", path, err)
			summary.MetaErrors++
			continue
		}

		records = append(records, pipeline.NewRecord(len(records), pipeline.Input{
			Path:      path,
			Make:      meta.CameraMake,
			Model:     meta.CameraModel,
			Author:    meta.Artist,
			LocalTime: meta.LocalTime,
			SubSec:    meta.SubSec,
			Ext:       strings.TrimPrefix(filepath.Ext(path), "."),
		}))
	}

	if !opts.Check && !opts.Rename {
		summary.Processed = len(records)
		finish(summary, opts, infof)
		return summary, nil
	}
	if len(records) == 0 {
		finish(summary, opts, infof)
		return summary, nil
	}

	var chooser pipeline.Chooser
	if opts.Interactive {
		chooser = newPromptChooser(display)
	}
	pipe := &pipeline.Pipeline{
		Registry: registry,
		Template: tmpl,
		Override: override,
		Chooser:  chooser,
		Workers:  opts.Workers,
	}
	if err := pipe.Process(ctx, records); err != nil {
		// Batch-fatal; nothing has been renamed at this point.
		return nil, err
	}

	if opts.Rename && opts.OutputDir != "" && !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	checkFailed := make(map[int]bool)
	if opts.Check {
		runCheck(records, tmpl, registry, summary, checkFailed, infof, warnf)
	}

	if opts.Rename {
		runRename(records, opts, summary, checkFailed, infof, warnf, errorf)
	}

	for _, rec := range records {
		if rec.Failed() {
			summary.Failed++
			errorf("%s: %v", rec.Input.Path, rec.Failure)
			continue
		}
		if display != nil && !rec.Resolved.IsZero() {
			infof("%s resolved to %s (%s)", rec.Input.Path,
				rec.Resolved.UTC().Format(time.RFC3339),
				rec.Resolved.In(display.Loc).Format("2006-01-02 15:04:05 MST"))
		}
	}

	finish(summary, opts, infof)
	return summary, nil
}

// runCheck compares each file's existing structured name against its freshly
// resolved metadata.
func runCheck(records []*pipeline.Record, tmpl *namecodec.Template,
	registry *device.Registry, summary *Summary, checkFailed map[int]bool,
	infof, warnf func(string, ...interface{})) {

	for _, rec := range records {
		base := filepath.Base(rec.Input.Path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))

		expected, err := tmpl.Decode(stem)
		if err != nil {
			// Not a structured name; nothing to verify.
			summary.Skipped++
			continue
		}
		if rec.Failed() {
			checkFailed[rec.Seq] = true
			continue
		}

		if _, known := registry.ByAbbr(expected.Abbr); expected.Abbr != "" && !known {
			warnf("%s: name carries unknown device abbreviation %q", rec.Input.Path, expected.Abbr)
			summary.Mismatched++
			checkFailed[rec.Seq] = true
			continue
		}

		actual := rec.Resolved.Unix()
		switch {
		case expected.Time.Unix() != actual:
			warnf("%s: name disagrees with metadata: expected %s, actual %s",
				rec.Input.Path,
				expected.Time.UTC().Format(time.RFC3339),
				rec.Resolved.UTC().Format(time.RFC3339))
			summary.Mismatched++
			checkFailed[rec.Seq] = true
		case rec.Device != nil && expected.Abbr != "" && expected.Abbr != rec.Device.Abbr:
			warnf("%s: name carries abbreviation %q but metadata resolves to %q",
				rec.Input.Path, expected.Abbr, rec.Device.Abbr)
			summary.Mismatched++
			checkFailed[rec.Seq] = true
		default:
			infof("%s: name matches metadata", rec.Input.Path)
			summary.Matched++
		}
	}
}

// runRename applies finalized names. Files that failed their check are left
// alone.
func runRename(records []*pipeline.Record, opts Options, summary *Summary,
	checkFailed map[int]bool, infof, warnf, errorf func(string, ...interface{})) {

	for _, rec := range records {
		if rec.Failed() {
			continue // counted by the caller
		}
		if checkFailed[rec.Seq] {
			warnf("%s: skipping rename because check failed", rec.Input.Path)
			summary.Skipped++
			continue
		}

		base := filepath.Base(rec.Input.Path)
		dir := opts.OutputDir
		if dir == "" {
			dir = filepath.Dir(rec.Input.Path)
		}
		dst := filepath.Join(dir, rec.Final)
		// Full-path comparison: a correctly named file still moves when an
		// output directory is set.
		if dst == filepath.Clean(rec.Input.Path) {
			infof("%s already has the desired name", rec.Input.Path)
			summary.Unchanged++
			continue
		}

		if opts.DryRun {
			infof("Would rename %s -> %s", rec.Input.Path, rec.Final)
			fmt.Printf("%s -> %s\n", base, rec.Final)
			summary.Processed++
			continue
		}
		if _, err := os.Stat(dst); err == nil {
			errorf("%s: destination already exists: %s", rec.Input.Path, dst)
			summary.Failed++
			continue
		}
		if err := os.Rename(rec.Input.Path, dst); err != nil {
			errorf("%s: rename failed: %v", rec.Input.Path, err)
			summary.Failed++
			continue
		}
		infof("Renamed %s -> %s", rec.Input.Path, dst)
		summary.Processed++
	}
}

func printDetails(path string) {
	details, err := media.ReadDetails(path)
	if err != nil {
		fmt.Printf("%s:\n\t(%v)\n", path, err)
		return
	}
	fmt.Printf("%s:\n", path)
	group := ""
	for _, f := range details.Fields {
		if f.Group != group {
			group = f.Group
			fmt.Printf("    [%s]\n", group)
		}
		fmt.Printf("\t%s: %s\n", f.Label, f.Value)
	}
}

func finish(summary *Summary, opts Options, infof func(string, ...interface{})) {
	if opts.PrintSummary {
		fmt.Println(summary)
	}
	infof("%s", summary)
}
