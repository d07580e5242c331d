package layout

import (
	"fmt"
	"io"
)

// SectorWriter wraps an io.WriterAt and writes data at sector-aligned
// offsets, refusing any write that would cross a sector boundary when the
// caller asks for record alignment. Directory Records must never span two
// sectors (ECMA-119 6.8.1.1); file extents and path tables may freely span
// many sectors.
type SectorWriter struct {
	sink       io.WriterAt
	sectorSize int64
}

// NewSectorWriter wraps sink for sector-addressed writes of the given
// sector size.
func NewSectorWriter(sink io.WriterAt, sectorSize int) *SectorWriter {
	return &SectorWriter{sink: sink, sectorSize: int64(sectorSize)}
}

// WriteExtent writes data starting at the first byte of LBA lba. data may
// span any number of sectors; used for file contents, path tables, and
// descriptors.
func (w *SectorWriter) WriteExtent(lba uint32, data []byte) error {
	offset := int64(lba) * w.sectorSize
	n, err := w.sink.WriteAt(data, offset)
	if err != nil {
		return fmt.Errorf("failed to write extent at LBA %d: %w", lba, err)
	}
	if n != len(data) {
		return fmt.Errorf("short write at LBA %d: wrote %d of %d bytes", lba, n, len(data))
	}
	return nil
}

// WriteRecordAligned writes a single record (e.g. a Directory Record) at
// byte offset offsetInSector within LBA lba's sector. It returns an error
// without writing anything if the record would cross into the next sector.
func (w *SectorWriter) WriteRecordAligned(lba uint32, offsetInSector int, data []byte) error {
	if int64(offsetInSector)+int64(len(data)) > w.sectorSize {
		return fmt.Errorf("record of %d bytes at sector offset %d would cross the sector boundary (sector size %d)",
			len(data), offsetInSector, w.sectorSize)
	}
	offset := int64(lba)*w.sectorSize + int64(offsetInSector)
	n, err := w.sink.WriteAt(data, offset)
	if err != nil {
		return fmt.Errorf("failed to write record at LBA %d offset %d: %w", lba, offsetInSector, err)
	}
	if n != len(data) {
		return fmt.Errorf("short write at LBA %d offset %d: wrote %d of %d bytes", lba, offsetInSector, n, len(data))
	}
	return nil
}

// SectorSize returns the sector size this writer was constructed with.
func (w *SectorWriter) SectorSize() int {
	return int(w.sectorSize)
}
