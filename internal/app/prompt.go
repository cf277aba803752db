package app

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhhhsong/exifmgr/internal/pipeline"
	"github.com/jhhhsong/exifmgr/internal/tzresolve"
)

// promptChooser asks the user to pick one reading of an ambiguous timestamp.
// Workers resolve records concurrently, so prompts are serialized; only the
// record awaiting input is suspended.
type promptChooser struct {
	mu      sync.Mutex
	in      *bufio.Reader
	display *tzresolve.Zone
}

func newPromptChooser(display *tzresolve.Zone) *promptChooser {
	return &promptChooser{in: bufio.NewReader(os.Stdin), display: display}
}

func (p *promptChooser) Choose(rec *pipeline.Record, amb *tzresolve.Ambiguity) (tzresolve.Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("%s: local time %s is ambiguous (%s):\n",
		rec.Input.Path, amb.Local.Format("2006-01-02 15:04:05"), amb.Reason)
	for i, c := range amb.Candidates {
		line := fmt.Sprintf("  %d) %s as %s", i+1, c.Time.UTC().Format(time.RFC3339), c.Zone)
		if c.Abbrev != "" && c.Abbrev != c.Zone {
			line += fmt.Sprintf(" (%s)", c.Abbrev)
		}
		if p.display != nil {
			line += fmt.Sprintf(" [%s]", c.Time.In(p.display.Loc).Format("2006-01-02 15:04:05 MST"))
		}
		fmt.Println(line)
	}

	for {
		fmt.Print("  -> select by index (empty to skip): ")
		answer, err := p.in.ReadString('\n')
		if err != nil {
			return tzresolve.Candidate{}, fmt.Errorf("read selection: %w", err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return tzresolve.Candidate{}, fmt.Errorf("no selection made")
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 1 || idx > len(amb.Candidates) {
			fmt.Printf("  (enter a number between 1 and %d)\n", len(amb.Candidates))
			continue
		}
		return amb.Candidates[idx-1], nil
	}
}
