// Package udf reads just enough of the UDF bridge format to answer whether
// an ISO9660 image also carries a UDF file system alongside it. It never
// builds a full UDF logical volume: no file tree, no allocation descriptors,
// no writer. That scope is intentionally out of reach (see SPEC_FULL.md).
package udf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-optical/iso9660kit/pkg/consts"
)

// Standard Identifiers recorded in the Volume Recognition Sequence that
// follows the System Area (ECMA-167 2/9.1).
const (
	BEA01 = "BEA01"
	NSR02 = "NSR02"
	NSR03 = "NSR03"
	TEA01 = "TEA01"
)

// DescriptorTag is the common 16-byte header prefixing every UDF descriptor
// (ECMA-167 3/7.2).
type DescriptorTag struct {
	TagIdentifier       uint16
	DescriptorVersion   uint16
	TagChecksum         uint8
	TagSerialNumber     uint16
	DescriptorCRC       uint16
	DescriptorCRCLength uint16
	TagLocation         uint32
}

// ParseDescriptorTag decodes the Descriptor Tag at the start of data.
func ParseDescriptorTag(data []byte) (*DescriptorTag, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("descriptor tag: need 16 bytes, got %d", len(data))
	}
	return &DescriptorTag{
		TagIdentifier:       binary.LittleEndian.Uint16(data[0:2]),
		DescriptorVersion:   binary.LittleEndian.Uint16(data[2:4]),
		TagChecksum:         data[4],
		TagSerialNumber:     binary.LittleEndian.Uint16(data[6:8]),
		DescriptorCRC:       binary.LittleEndian.Uint16(data[8:10]),
		DescriptorCRCLength: binary.LittleEndian.Uint16(data[10:12]),
		TagLocation:         binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}

// DetectBridge scans the Volume Recognition Sequence starting immediately
// after the System Area for an NSR02 or NSR03 Standard Identifier, which
// marks the image as a bridge disc carrying both an ISO9660 and a UDF file
// system. It stops at the sequence terminator (TEA01), at the first sector
// whose Standard Identifier doesn't belong to the sequence, or after a
// bounded number of sectors, whichever comes first.
func DetectBridge(r io.ReaderAt) (bool, error) {
	const maxSectors = 32
	buf := make([]byte, consts.ISO9660_SECTOR_SIZE)
	for i := 0; i < maxSectors; i++ {
		offset := int64(consts.ISO9660_SYSTEM_AREA_SECTORS+i) * consts.ISO9660_SECTOR_SIZE
		if _, err := r.ReadAt(buf, offset); err != nil {
			if err == io.EOF {
				break
			}
			return false, fmt.Errorf("volume recognition sequence scan at sector %d: %w", consts.ISO9660_SYSTEM_AREA_SECTORS+i, err)
		}
		switch string(buf[1:6]) {
		case NSR02, NSR03:
			return true, nil
		case BEA01, consts.ISO9660_STD_IDENTIFIER:
			continue
		case TEA01:
			return false, nil
		default:
			return false, nil
		}
	}
	return false, nil
}
