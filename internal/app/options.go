package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhhhsong/exifmgr/internal/config"
)

// Options represents user-provided CLI parameters.
type Options struct {
	Inputs    []string
	Recursive bool

	Show   bool
	Check  bool
	Rename bool

	SourceZone  string // forced interpretation zone, overrides device history
	DisplayZone string // extra zone for displaying resolved timestamps
	ConfigDir   string
	OutputDir   string
	StemPrefix  string

	Interactive bool
	DryRun      bool
	Workers     int

	LogLevel     string
	LogFile      string
	PrintSummary bool
}

// Validate performs basic validation and assigns defaults where needed.
func (o *Options) Validate() error {
	o.SourceZone = strings.TrimSpace(o.SourceZone)
	o.DisplayZone = strings.TrimSpace(o.DisplayZone)
	o.ConfigDir = strings.TrimSpace(o.ConfigDir)
	o.OutputDir = strings.TrimSpace(o.OutputDir)
	o.StemPrefix = strings.TrimSpace(o.StemPrefix)
	o.LogLevel = strings.TrimSpace(o.LogLevel)
	o.LogFile = strings.TrimSpace(o.LogFile)

	if len(o.Inputs) == 0 {
		return fmt.Errorf("at least one input path is required")
	}
	if !o.Show && !o.Check && !o.Rename {
		return fmt.Errorf("nothing to do: pass --show, --check or --rename")
	}
	if o.ConfigDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		o.ConfigDir = dir
	}
	if o.StemPrefix == "" {
		o.StemPrefix = "DSC"
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if o.LogFile == "" {
		defaultPath, err := defaultLogPath()
		if err != nil {
			return err
		}
		o.LogFile = defaultPath
	}
	return nil
}

func defaultLogPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	dir := filepath.Dir(exe)
	// When running via `go run`, executable resides in temp; prefer current working dir then.
	if strings.HasPrefix(dir, os.TempDir()) {
		cwd, err := os.Getwd()
		if err == nil {
			dir = cwd
		}
	}
	return filepath.Join(dir, "exifmgr.log"), nil
}
