// Package config loads the device tables the registry is built from. The
// registry itself only sees plain Entry records; this package owns the file
// format and nothing else.
//
// Two CSV files, '#' starts a comment line:
//
//	devices:   make,model,author,abbr        (make and author may be empty)
//	tzhistory: abbr,zone,start,end           (times UTC; empty = unbounded)
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhhhsong/exifmgr/internal/device"
)

const (
	DeviceFileName  = ".exifmgr_devinfo"
	HistoryFileName = ".exifmgr_tzinfo"
)

// DefaultDir returns the directory config files are read from when no
// --cfgdir is given.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return home, nil
}

// LoadDevices reads the device table and timezone history from dir and
// returns registry entries. A missing device file yields an empty slice; a
// missing history file just leaves every device without assignments.
func LoadDevices(dir string) ([]device.Entry, error) {
	entries, order, err := loadDeviceTable(filepath.Join(dir, DeviceFileName))
	if err != nil {
		return nil, err
	}
	if err := loadHistory(filepath.Join(dir, HistoryFileName), entries); err != nil {
		return nil, err
	}

	out := make([]device.Entry, 0, len(order))
	for _, abbr := range order {
		out = append(out, *entries[abbr])
	}
	return out, nil
}

func loadDeviceTable(path string) (map[string]*device.Entry, []string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	entries := make(map[string]*device.Entry, len(rows))
	var order []string
	for i, row := range rows {
		if len(row) != 4 {
			return nil, nil, fmt.Errorf("%s:%d: want 4 columns (make,model,author,abbr), got %d", path, i+1, len(row))
		}
		abbr := strings.TrimSpace(row[3])
		if abbr == "" {
			return nil, nil, fmt.Errorf("%s:%d: abbreviation is empty", path, i+1)
		}
		if _, dup := entries[abbr]; dup {
			return nil, nil, fmt.Errorf("%s:%d: duplicate abbreviation %q", path, i+1, abbr)
		}
		entries[abbr] = &device.Entry{
			Make:   strings.TrimSpace(row[0]),
			Model:  strings.TrimSpace(row[1]),
			Author: strings.TrimSpace(row[2]),
			Abbr:   abbr,
		}
		order = append(order, abbr)
	}
	return entries, order, nil
}

func loadHistory(path string, entries map[string]*device.Entry) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	for i, row := range rows {
		if len(row) != 4 {
			return fmt.Errorf("%s:%d: want 4 columns (abbr,zone,start,end), got %d", path, i+1, len(row))
		}
		abbr := strings.TrimSpace(row[0])
		entry, ok := entries[abbr]
		if !ok {
			return fmt.Errorf("%s:%d: assignment for unknown device %q", path, i+1, abbr)
		}
		start, err := parseBound(row[2])
		if err != nil {
			return fmt.Errorf("%s:%d: start: %w", path, i+1, err)
		}
		end, err := parseBound(row[3])
		if err != nil {
			return fmt.Errorf("%s:%d: end: %w", path, i+1, err)
		}
		entry.Intervals = append(entry.Intervals, device.IntervalSpec{
			Start: start,
			End:   end,
			Zone:  strings.TrimSpace(row[1]),
		})
	}
	return nil
}

// parseBound parses an interval bound, given in UTC. An empty value means
// unbounded.
func parseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable time %q (want 2006-01-02[T15:04[:05]], UTC)", s)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
