// Package copier places scanned files into categorized folders under a
// destination. A run copies files one at a time in input order, names
// collisions stem_1.ext, stem_2.ext and so on, reports progress in batches,
// and always finishes by writing a manifest of what it did.
package copier

import (
	"errors"

	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

const (
	// DefaultBatchSize is the number of records between progress events.
	DefaultBatchSize = 5

	// LockFileName is the flock file in the destination. It is left in place
	// after a run.
	LockFileName = ".ark.lock"

	// SidecarSuffix is appended to a copied file's path to name its origin note.
	SidecarSuffix = ".origin.txt"
)

var (
	// ErrSetup indicates the destination layout could not be prepared.
	// No file has been attempted and no manifest is written.
	ErrSetup = errors.New("destination setup failed")

	// ErrDestinationLost indicates the destination disappeared mid-run.
	ErrDestinationLost = errors.New("destination no longer available")

	// ErrDestinationBusy indicates another run holds the destination lock.
	ErrDestinationBusy = errors.New("destination is in use by another run")
)

// Options configures a copy run.
type Options struct {
	// Destination is the root the category folders are created under.
	Destination string

	// Copy controls the destination layout and sidecars.
	Copy types.CopyOptions

	// OnProgress receives an event every BatchSize records and on the last.
	// It is called from the goroutine running Copy.
	OnProgress func(types.CopyProgress)

	// BatchSize is the number of records between progress events.
	// Zero uses DefaultBatchSize.
	BatchSize int

	// History, when set, receives an archived copy of the manifest.
	History *manifest.History

	// Lock takes an exclusive lock on the destination for the run.
	Lock bool
}

// Validate fills in defaults and checks required fields.
func (o *Options) Validate() error {
	if o.Destination == "" {
		return errors.New("destination is required")
	}
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	return nil
}
