// Package analysis provides evaluation-time analyzers for neural-backed
// decision trees. An external driver calls an Analyzer at fixed points of
// each epoch:
//
//	StartEpoch, StartTrain, EndTrain, StartTest, UpdateBatch..., EndTest, EndEpoch
//
// Analyzers accumulate per-test-phase statistics from model outputs and
// print a human-readable summary when the test phase ends.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"os"

	"nbdt-analysis/internal/tensor"
)

var (
	// ErrEpochMismatch is returned when a phase callback names a different
	// epoch than the last StartEpoch.
	ErrEpochMismatch = errors.New("analysis: epoch mismatch")
	// ErrNotImplemented is returned by phases an analyzer does not support.
	ErrNotImplemented = errors.New("analysis: not implemented")
	// ErrNotStarted is returned when per-test state is used before StartTest.
	ErrNotStarted = errors.New("analysis: test phase not started")
)

// Analyzer is the lifecycle contract between an evaluation driver and an
// analyzer. Implementations are not safe for concurrent use.
type Analyzer interface {
	StartEpoch(epoch int)
	StartTrain(epoch int) error
	UpdateBatch(outputs *tensor.Tensor, targets []int) (Stat, error)
	EndTrain(epoch int) error
	StartTest(epoch int) error
	EndTest(epoch int) error
	EndEpoch(epoch int) error
}

// Stat is an informational value returned from UpdateBatch for live logging.
// The zero Stat means the analyzer had nothing to report.
type Stat struct {
	Name  string
	Value float64
}

// Valid reports whether the stat carries a value.
func (s Stat) Valid() bool { return s.Name != "" }

// Noop records the current epoch and checks that every phase callback
// agrees with it. The other analyzers embed it.
type Noop struct {
	Classes    []string
	NumClasses int

	out     io.Writer
	epoch   int
	started bool
}

// NewNoop returns a baseline analyzer that only tracks epochs.
func NewNoop(classes []string) *Noop {
	return &Noop{Classes: classes, NumClasses: len(classes)}
}

// SetOutput redirects summary lines, which go to stdout by default.
func (a *Noop) SetOutput(w io.Writer) { a.out = w }

func (a *Noop) writer() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

// Epoch returns the recorded epoch and whether StartEpoch has been called.
func (a *Noop) Epoch() (int, bool) { return a.epoch, a.started }

func (a *Noop) StartEpoch(epoch int) {
	a.epoch = epoch
	a.started = true
}

func (a *Noop) StartTrain(epoch int) error { return a.check("start_train", epoch) }

func (a *Noop) UpdateBatch(outputs *tensor.Tensor, targets []int) (Stat, error) {
	return Stat{}, nil
}

func (a *Noop) EndTrain(epoch int) error  { return a.check("end_train", epoch) }
func (a *Noop) StartTest(epoch int) error { return a.check("start_test", epoch) }
func (a *Noop) EndTest(epoch int) error   { return a.check("end_test", epoch) }
func (a *Noop) EndEpoch(epoch int) error  { return a.check("end_epoch", epoch) }

func (a *Noop) check(phase string, epoch int) error {
	if !a.started {
		return fmt.Errorf("%w: %s(%d) before start_epoch", ErrEpochMismatch, phase, epoch)
	}
	if epoch != a.epoch {
		return fmt.Errorf("%w: %s(%d), current epoch is %d", ErrEpochMismatch, phase, epoch, a.epoch)
	}
	return nil
}
