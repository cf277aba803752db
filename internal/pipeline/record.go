package pipeline

import (
	"fmt"
	"time"

	"github.com/jhhhsong/exifmgr/internal/device"
	"github.com/jhhhsong/exifmgr/internal/namecodec"
	"github.com/jhhhsong/exifmgr/internal/tzresolve"
)

// Stage is a photo record's position in the per-file state machine:
// Raw -> IdentityResolved -> TimestampResolved -> Encoded -> Finalized, with
// Failed terminal from any non-terminal stage.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageIdentity  Stage = "identity-resolved"
	StageTimestamp Stage = "timestamp-resolved"
	StageEncoded   Stage = "encoded"
	StageFinalized Stage = "finalized"
	StageFailed    Stage = "failed"
)

// Input is the raw per-file metadata handed over by the extraction
// collaborator. LocalTime is the naive wall-clock reading as the camera
// stored it; its location is meaningless.
type Input struct {
	Path      string
	Make      string
	Model     string
	Author    string
	LocalTime time.Time
	SubSec    string
	Ext       string // extension without the dot, kept verbatim
}

// Failure records where and why a record left the pipeline. Transitions are
// never retried; failures are reported per record and do not abort siblings.
type Failure struct {
	Stage  Stage // the stage the record held when it failed
	Reason error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Reason }

// Record is one photograph moving through the pipeline. Records are owned by
// the batch loop, mutated in place, and never shared across workers.
type Record struct {
	Seq   int
	Input Input

	Stage     Stage
	Device    *device.Record
	Resolved  time.Time
	Ambiguity *tzresolve.Ambiguity // retained for reporting when resolution stalled
	Name      namecodec.Name
	Final     string // final filename including extension
	Failure   *Failure
}

// NewRecord wraps extracted metadata into a raw pipeline record.
func NewRecord(seq int, in Input) *Record {
	return &Record{Seq: seq, Input: in, Stage: StageRaw}
}

// Failed reports whether the record terminated unsuccessfully.
func (r *Record) Failed() bool { return r.Stage == StageFailed }

func (r *Record) fail(reason error) {
	r.Failure = &Failure{Stage: r.Stage, Reason: reason}
	r.Stage = StageFailed
}
