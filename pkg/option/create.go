package option

import (
	"time"

	"github.com/go-optical/iso9660kit/pkg/logging"
)

// ISOType represents the type of ISO image
type ISOType int

const (
	ISO_TYPE_ISO9660 ISOType = iota
	ISO_TYPE_UDF
)

// CreateOptions configures a newly created (not-yet-packed) image.
type CreateOptions struct {
	ISOType ISOType
	// Preparer is recorded as the Primary Volume Descriptor's Data Preparer
	// Identifier.
	Preparer string
	// JolietEnabled adds a Supplementary Volume Descriptor with UCS-2BE long
	// names alongside the Primary Volume Descriptor.
	JolietEnabled bool
	// RootDir, if set, seeds the image by recursively adding every file
	// under this host directory.
	RootDir string
	// Logger receives structured/leveled log output during packing.
	Logger *logging.Logger
	// Clock supplies the current time for volume and directory record
	// timestamps. Defaults to time.Now; overridable for reproducible
	// (golden-file) test output.
	Clock func() time.Time
}

type CreateOption func(*CreateOptions)

func WithISOType(isoType ISOType) CreateOption {
	return func(o *CreateOptions) {
		o.ISOType = isoType
	}
}

// WithPreparer sets the Data Preparer Identifier recorded in the volume
// descriptor(s).
func WithPreparer(preparer string) CreateOption {
	return func(o *CreateOptions) {
		o.Preparer = preparer
	}
}

// WithJoliet enables a Joliet Supplementary Volume Descriptor.
func WithJoliet(enabled bool) CreateOption {
	return func(o *CreateOptions) {
		o.JolietEnabled = enabled
	}
}

// WithRootDir seeds the image from a host directory tree.
func WithRootDir(path string) CreateOption {
	return func(o *CreateOptions) {
		o.RootDir = path
	}
}

// WithCreateLogger sets the logger used while packing/writing.
func WithCreateLogger(logger *logging.Logger) CreateOption {
	return func(o *CreateOptions) {
		o.Logger = logger
	}
}

// WithClock overrides the time source used for volume and directory record
// timestamps, primarily so tests can produce reproducible output.
func WithClock(clock func() time.Time) CreateOption {
	return func(o *CreateOptions) {
		o.Clock = clock
	}
}
