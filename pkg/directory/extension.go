package directory

import "github.com/go-optical/iso9660kit/pkg/encoding"

// Extension controls how a directory tree's entry names are encoded into a
// Directory Record's File Identifier field when the writer serializes a
// tree, and how long an encoded identifier may be. It is a small interface
// rather than a generic type parameter: the rest of the codec layer is
// concrete-typed, and a generic DirectoryRecord[E] would be a bigger
// structural departure from that style than the identifier differences
// between plain ISO9660 and Joliet actually warrant.
type Extension interface {
	// EncodeIdentifier returns the on-disk File Identifier bytes for a
	// regular (non-special) name.
	EncodeIdentifier(name string) []byte
	// MaxNameLength is the longest name (in the extension's native units)
	// the extension permits. The writer does not call it: Joliet's
	// EncodeIdentifier applies its own cap, and NoExtension's does not
	// truncate.
	MaxNameLength() int
	// Name identifies the extension for diagnostics/logging.
	Name() string
}

type noExtension struct{}

func (noExtension) EncodeIdentifier(name string) []byte { return []byte(name) }
func (noExtension) MaxNameLength() int                  { return 30 }
func (noExtension) Name() string                        { return "ISO9660" }

// NoExtension encodes identifiers as plain d-character/a-character bytes,
// the base ISO9660 behavior.
var NoExtension Extension = noExtension{}

type jolietExtension struct{}

func (jolietExtension) EncodeIdentifier(name string) []byte {
	units := 0
	for i, r := range name {
		n := 1
		if r > 0xFFFF {
			n = 2 // encoded as a surrogate pair
		}
		if units+n > 64 {
			name = name[:i]
			break
		}
		units += n
	}
	return encoding.EncodeUCS2BigEndian(name)
}
func (jolietExtension) MaxNameLength() int { return 64 }
func (jolietExtension) Name() string       { return "Joliet" }

// Joliet encodes identifiers as UCS-2BE code units, capped at the 64
// code-unit limit Joliet places on a single path component.
var Joliet Extension = jolietExtension{}
