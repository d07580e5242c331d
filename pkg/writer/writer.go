// Package writer assembles an in-memory file tree into a valid ISO9660
// image: assigning Logical Block Addresses, building Path Tables and
// Directory Records, and serializing everything through pkg/layout's
// sector-aligned writer. This is net-new: the teacher's own Create()/Save()
// path left every one of these steps as unimplemented scaffolding.
package writer

import (
	"fmt"
	"io"
	"time"

	"github.com/go-optical/iso9660kit/pkg/consts"
	"github.com/go-optical/iso9660kit/pkg/descriptor"
	"github.com/go-optical/iso9660kit/pkg/directory"
	"github.com/go-optical/iso9660kit/pkg/encoding"
	"github.com/go-optical/iso9660kit/pkg/filesystem"
	"github.com/go-optical/iso9660kit/pkg/layout"
	"github.com/go-optical/iso9660kit/pkg/logging"
	"github.com/go-optical/iso9660kit/pkg/option"
	"github.com/go-optical/iso9660kit/pkg/pathtable"
)

// Writer builds an ISO9660 image from an in-memory file tree. The zero
// value is not usable; construct with New.
type Writer struct {
	volumeID string
	tree     *filesystem.Tree
	joliet   bool
	preparer string
	logger   *logging.Logger
	clock    func() time.Time
}

// New creates a Writer targeting the given volume identifier.
func New(volumeID string, opts ...option.CreateOption) *Writer {
	co := &option.CreateOptions{
		Preparer: "iso9660kit",
		Clock:    time.Now,
		Logger:   logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(co)
	}
	if co.Clock == nil {
		co.Clock = time.Now
	}
	return &Writer{
		volumeID: volumeID,
		tree:     filesystem.NewTree(),
		joliet:   co.JolietEnabled,
		preparer: co.Preparer,
		logger:   co.Logger,
		clock:    co.Clock,
	}
}

// Filesystem returns the in-memory tree files are upserted into before
// Write is called.
func (w *Writer) Filesystem() *filesystem.Tree {
	return w.tree
}

// treeDir is an extension-agnostic view of a directory: the raw name and
// a 1-based path table number assigned once, shared by every extension's
// directory extent for this node.
type treeDir struct {
	name     string
	isRoot   bool
	parent   *treeDir
	children []*treeDir
	files    []*treeFile
	ptIndex  uint16
	// per-extension LBA/length, keyed by extension name
	lba map[string]uint32
	len map[string]uint32
}

type treeFile struct {
	name   string
	size   uint32
	source io.ReaderAt
	lba    uint32
}

func buildTreeDir(node *filesystem.Node, parent *treeDir) *treeDir {
	d := &treeDir{
		name:   node.Name,
		isRoot: parent == nil,
		parent: parent,
		lba:    make(map[string]uint32),
		len:    make(map[string]uint32),
	}
	for _, child := range node.SortedChildren() {
		if child.IsDir {
			d.children = append(d.children, buildTreeDir(child, d))
		} else {
			d.files = append(d.files, &treeFile{name: child.Name, size: child.Size, source: child.Source})
		}
	}
	return d
}

// assignPathTableNumbers walks the tree breadth-first (root first, then
// each level in turn), the order ECMA-119 9.4 requires path table records
// to appear in.
func assignPathTableNumbers(root *treeDir) []*treeDir {
	var order []*treeDir
	queue := []*treeDir{root}
	next := uint16(1)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		d.ptIndex = next
		next++
		order = append(order, d)
		queue = append(queue, d.children...)
	}
	return order
}

const recordBaseSize = 33 // everything in a Directory Record except the identifier bytes and its padding byte

func recordSize(identifierLen int) int {
	size := recordBaseSize + identifierLen
	if identifierLen%2 == 0 {
		size++
	}
	return size
}

// sectorsForRecords packs a sequence of record byte-sizes into 2048-byte
// sectors, never letting one record span two sectors, and returns the
// number of sectors consumed.
func sectorsForRecords(sizes []int) uint32 {
	sectors := uint32(1)
	used := 0
	for _, size := range sizes {
		if used+size > consts.ISO9660_SECTOR_SIZE {
			sectors++
			used = 0
		}
		used += size
	}
	return sectors
}

// directoryRecordSizes returns the byte sizes, in write order, of every
// Directory Record d's extent will contain under ext: "." then ".." then
// each child (subdirectories and files, ISO9660-collated by raw name).
func directoryRecordSizes(d *treeDir, ext directory.Extension) []int {
	sizes := []int{recordSize(1), recordSize(1)} // "." and ".."
	for _, child := range d.children {
		sizes = append(sizes, recordSize(len(ext.EncodeIdentifier(child.name))))
	}
	for _, file := range d.files {
		sizes = append(sizes, recordSize(len(fileIdentifier(file.name, ext))))
	}
	return sizes
}

// fileIdentifier appends the ";1" version number ECMA-119 8.5.1 requires of
// plain ISO9660 file identifiers. Joliet conventionally omits it.
func fileIdentifier(name string, ext directory.Extension) []byte {
	if ext == directory.Joliet {
		return ext.EncodeIdentifier(name)
	}
	return ext.EncodeIdentifier(name + ";1")
}

// computeExtents sizes every directory's extent (in bytes, sector-rounded)
// for the given extension, without yet assigning LBAs.
func computeExtents(d *treeDir, ext directory.Extension) {
	sectors := sectorsForRecords(directoryRecordSizes(d, ext))
	d.len[ext.Name()] = sectors * consts.ISO9660_SECTOR_SIZE
	for _, child := range d.children {
		computeExtents(child, ext)
	}
}

// allocateDirectories assigns LBAs depth-first (root first, then each
// subdirectory's own subtree before its next sibling).
func allocateDirectories(d *treeDir, ext directory.Extension, alloc *layout.LBAAllocator) {
	d.lba[ext.Name()] = alloc.Allocate(d.len[ext.Name()])
	for _, child := range d.children {
		allocateDirectories(child, ext, alloc)
	}
}

// allocateFiles assigns a single shared LBA to each unique file extent.
// File content is identical regardless of which directory-naming extension
// references it, so primary and Joliet directory records for the same
// file point at the same extent.
func allocateFiles(d *treeDir, alloc *layout.LBAAllocator) {
	for _, f := range d.files {
		f.lba = alloc.Allocate(f.size)
	}
	for _, child := range d.children {
		allocateFiles(child, alloc)
	}
}

func buildRecord(identifier string, isDir bool, lba, dataLen uint32, modTime time.Time, special bool) *directory.DirectoryRecord {
	r := &directory.DirectoryRecord{
		FileIdentifier:       identifier,
		LocationOfExtent:     lba,
		DataLength:           dataLen,
		RecordingDateAndTime: modTime,
		FileFlags:            directory.FileFlags{Directory: isDir},
		VolumeSequenceNumber: 1,
	}
	return r
}

// marshalDirectory serializes d's Directory Records (under ext) into
// sector-packed bytes ready to write at d's assigned extent.
func marshalDirectory(d *treeDir, ext directory.Extension, modTime time.Time) ([]byte, error) {
	extName := ext.Name()
	buf := make([]byte, d.len[extName])

	parent := d
	if d.parent != nil {
		parent = d.parent
	}

	records := []*directory.DirectoryRecord{
		buildRecord("\x00", true, d.lba[extName], d.len[extName], modTime, true),
		buildRecord("\x01", true, parent.lba[extName], parent.len[extName], modTime, true),
	}
	for _, child := range d.children {
		records = append(records, buildRecord(string(ext.EncodeIdentifier(child.name)), true, child.lba[extName], child.len[extName], modTime, false))
	}
	for _, f := range d.files {
		records = append(records, buildRecord(string(fileIdentifier(f.name, ext)), false, f.lba, f.size, modTime, false))
	}

	offset := 0
	sectorUsed := 0
	for _, r := range records {
		recBytes, err := r.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal directory record %q: %w", r.FileIdentifier, err)
		}
		if sectorUsed+len(recBytes) > consts.ISO9660_SECTOR_SIZE {
			// advance to the next sector boundary; the gap stays zeroed.
			offset += consts.ISO9660_SECTOR_SIZE - sectorUsed
			sectorUsed = 0
		}
		copy(buf[offset:], recBytes)
		offset += len(recBytes)
		sectorUsed += len(recBytes)
	}
	return buf, nil
}

// buildPathTable constructs the Path Table records for every directory
// under ext, in path-table (BFS) order, for both endians.
func buildPathTable(order []*treeDir, ext directory.Extension) (l *pathtable.PathTable, m *pathtable.PathTable) {
	extName := ext.Name()
	l = &pathtable.PathTable{}
	m = &pathtable.PathTable{}
	for _, d := range order {
		name := "\x00"
		if !d.isRoot {
			name = string(ext.EncodeIdentifier(d.name))
		}
		parentIdx := d.ptIndex
		if d.parent != nil {
			parentIdx = d.parent.ptIndex
		} else {
			parentIdx = 1
		}
		l.Records = append(l.Records, &pathtable.PathTableRecord{
			LocationOfExtent:      d.lba[extName],
			ParentDirectoryNumber: parentIdx,
			DirectoryIdentifier:   name,
		})
		m.Records = append(m.Records, &pathtable.PathTableRecord{
			LocationOfExtent:      d.lba[extName],
			ParentDirectoryNumber: parentIdx,
			DirectoryIdentifier:   name,
		})
	}
	return l, m
}

func pathTableByteSize(order []*treeDir, ext directory.Extension) uint32 {
	var size uint32
	for _, d := range order {
		idLen := 1
		if !d.isRoot {
			idLen = len(ext.EncodeIdentifier(d.name))
		}
		recLen := 8 + idLen
		if idLen%2 != 0 {
			recLen++
		}
		size += uint32(recLen)
	}
	return size
}

// Write serializes the tree as a complete ISO9660 image (plus a Joliet
// Supplementary Volume Descriptor when enabled) to sink.
func (w *Writer) Write(sink io.WriterAt) error {
	now := w.clock()

	root := buildTreeDir(w.tree.Root, nil)
	ptOrder := assignPathTableNumbers(root)

	computeExtents(root, directory.NoExtension)
	if w.joliet {
		computeExtents(root, directory.Joliet)
	}

	alloc := layout.NewLBAAllocator(16, consts.ISO9660_SECTOR_SIZE)

	// Descriptors: PVD, optional SVD, Terminator.
	pvdLBA := alloc.Allocate(consts.ISO9660_SECTOR_SIZE)
	var svdLBA uint32
	if w.joliet {
		svdLBA = alloc.Allocate(consts.ISO9660_SECTOR_SIZE)
	}
	termLBA := alloc.Allocate(consts.ISO9660_SECTOR_SIZE)

	// Primary path tables.
	primaryPTSize := pathTableByteSize(ptOrder, directory.NoExtension)
	primaryLLBA := alloc.Allocate(primaryPTSize)
	primaryMLBA := alloc.Allocate(primaryPTSize)

	var jolietPTSize uint32
	var jolietLLBA, jolietMLBA uint32
	if w.joliet {
		jolietPTSize = pathTableByteSize(ptOrder, directory.Joliet)
		jolietLLBA = alloc.Allocate(jolietPTSize)
		jolietMLBA = alloc.Allocate(jolietPTSize)
	}

	// Directory extents, depth-first.
	allocateDirectories(root, directory.NoExtension, alloc)
	if w.joliet {
		allocateDirectories(root, directory.Joliet, alloc)
	}

	// Shared file data.
	allocateFiles(root, alloc)

	sw := layout.NewSectorWriter(sink, consts.ISO9660_SECTOR_SIZE)

	// System Area: 16 zeroed sectors.
	if err := sw.WriteExtent(0, make([]byte, consts.ISO9660_SECTOR_SIZE*consts.ISO9660_SYSTEM_AREA_SECTORS)); err != nil {
		return err
	}

	volumeSpaceSize := alloc.Peek()

	rootRecord := buildRecord("\x00", true, root.lba[directory.NoExtension.Name()], root.len[directory.NoExtension.Name()], now, true)
	pvd := &descriptor.PrimaryVolumeDescriptor{
		VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
			VolumeDescriptorType:    descriptor.TYPE_PRIMARY_DESCRIPTOR,
			StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
			VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
		},
		PrimaryVolumeDescriptorBody: descriptor.PrimaryVolumeDescriptorBody{
			VolumeIdentifier:                 w.volumeID,
			VolumeSpaceSize:                  volumeSpaceSize,
			VolumeSetSize:                    1,
			VolumeSequenceNumber:             1,
			LogicalBlockSize:                 consts.ISO9660_SECTOR_SIZE,
			PathTableSize:                    primaryPTSize,
			LocationOfTypeLPathTable:         primaryLLBA,
			LocationOfTypeMPathTable:         primaryMLBA,
			RootDirectoryRecord:              rootRecord,
			DataPreparerIdentifier:           w.preparer,
			VolumeCreationDateAndTime:        now,
			VolumeModificationDateAndTime:    now,
			VolumeEffectiveDateAndTime:       now,
			FileStructureVersion:             1,
		},
	}
	pvdBytes, err := pvd.Marshal()
	if err != nil {
		return fmt.Errorf("marshal primary volume descriptor: %w", err)
	}
	if err := sw.WriteExtent(pvdLBA, pvdBytes[:]); err != nil {
		return err
	}

	if w.joliet {
		jolietRootRecord := buildRecord("\x00", true, root.lba[directory.Joliet.Name()], root.len[directory.Joliet.Name()], now, true)
		// SupplementaryVolumeDescriptorBody stores these as raw both-byte-order
		// arrays rather than integers (see descriptor.SupplementaryVolumeDescriptorBody),
		// so encode them here the same way PrimaryVolumeDescriptorBody.Marshal does.
		svd := &descriptor.SupplementaryVolumeDescriptor{
			VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
				VolumeDescriptorType:    descriptor.TYPE_SUPPLEMENTARY_DESCRIPTOR,
				StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
				VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
			},
			SupplementaryVolumeDescriptorBody: descriptor.SupplementaryVolumeDescriptorBody{
				VolumeIdentifier:              w.volumeID,
				VolumeSpaceSize:               encoding.MarshalBothByteOrders32(volumeSpaceSize),
				VolumeSetSize:                 encoding.MarshalBothByteOrders16(1),
				VolumeSequenceNumber:          encoding.MarshalBothByteOrders16(1),
				LogicalBlockSize:              encoding.MarshalBothByteOrders16(consts.ISO9660_SECTOR_SIZE),
				PathTableSize:                 jolietPTSize,
				LocationOfTypeLPathTable:      jolietLLBA,
				LocationOfTypeMPathTable:      jolietMLBA,
				RootDirectoryRecord:           jolietRootRecord,
				DataPreparerIdentifier:        w.preparer,
				VolumeCreationDateAndTime:     now,
				VolumeModificationDateAndTime: now,
				VolumeEffectiveDateAndTime:    now,
				FileStructureVersion:          1,
			},
		}
		copy(svd.SupplementaryVolumeDescriptorBody.EscapeSequences[:], []byte(consts.JOLIET_LEVEL_3_ESCAPE))
		svdBytes, err := svd.Marshal()
		if err != nil {
			return fmt.Errorf("marshal supplementary volume descriptor: %w", err)
		}
		if err := sw.WriteExtent(svdLBA, svdBytes[:]); err != nil {
			return err
		}
	}

	term := descriptor.NewVolumeDescriptorSetTerminator()
	termBytes, err := term.Marshal()
	if err != nil {
		return fmt.Errorf("marshal volume descriptor set terminator: %w", err)
	}
	if err := sw.WriteExtent(termLBA, termBytes[:]); err != nil {
		return err
	}

	// Path tables.
	primaryL, primaryM := buildPathTable(ptOrder, directory.NoExtension)
	primaryLBytes, _ := marshalPathTable(primaryL, true)
	primaryMBytes, _ := marshalPathTable(primaryM, false)
	if err := sw.WriteExtent(primaryLLBA, pad(primaryLBytes, primaryPTSize)); err != nil {
		return err
	}
	if err := sw.WriteExtent(primaryMLBA, pad(primaryMBytes, primaryPTSize)); err != nil {
		return err
	}
	if w.joliet {
		jolietL, jolietM := buildPathTable(ptOrder, directory.Joliet)
		jolietLBytes, _ := marshalPathTable(jolietL, true)
		jolietMBytes, _ := marshalPathTable(jolietM, false)
		if err := sw.WriteExtent(jolietLLBA, pad(jolietLBytes, jolietPTSize)); err != nil {
			return err
		}
		if err := sw.WriteExtent(jolietMLBA, pad(jolietMBytes, jolietPTSize)); err != nil {
			return err
		}
	}

	// Directory extents.
	if err := writeDirectories(root, directory.NoExtension, now, sw); err != nil {
		return err
	}
	if w.joliet {
		if err := writeDirectories(root, directory.Joliet, now, sw); err != nil {
			return err
		}
	}

	// File data.
	return writeFiles(root, sw)
}

func pad(b []byte, size uint32) []byte {
	if uint32(len(b)) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// marshalPathTable marshals a path table's records with the given
// endianness; PathTable.Marshal() ignores endianness per-record (it is
// fixed at record-construction time in this package), so we set it here.
func marshalPathTable(pt *pathtable.PathTable, littleEndian bool) ([]byte, error) {
	var buf []byte
	for _, r := range pt.Records {
		recBytes, err := marshalPathTableRecord(r, littleEndian)
		if err != nil {
			return nil, err
		}
		buf = append(buf, recBytes...)
	}
	return buf, nil
}

func marshalPathTableRecord(r *pathtable.PathTableRecord, littleEndian bool) ([]byte, error) {
	idBytes := []byte(r.DirectoryIdentifier)
	idLen := len(idBytes)
	recLen := 8 + idLen
	if idLen%2 != 0 {
		recLen++
	}
	buf := make([]byte, recLen)
	buf[0] = byte(idLen)
	buf[1] = r.ExtendedAttributeRecordLength
	if littleEndian {
		putUint32LE(buf[2:6], r.LocationOfExtent)
		putUint16LE(buf[6:8], r.ParentDirectoryNumber)
	} else {
		putUint32BE(buf[2:6], r.LocationOfExtent)
		putUint16BE(buf[6:8], r.ParentDirectoryNumber)
	}
	copy(buf[8:], idBytes)
	return buf, nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putUint32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putUint16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func writeDirectories(d *treeDir, ext directory.Extension, modTime time.Time, sw *layout.SectorWriter) error {
	data, err := marshalDirectory(d, ext, modTime)
	if err != nil {
		return err
	}
	if err := sw.WriteExtent(d.lba[ext.Name()], data); err != nil {
		return err
	}
	for _, child := range d.children {
		if err := writeDirectories(child, ext, modTime, sw); err != nil {
			return err
		}
	}
	return nil
}

func writeFiles(d *treeDir, sw *layout.SectorWriter) error {
	for _, f := range d.files {
		data := make([]byte, f.size)
		if f.source != nil {
			if _, err := f.source.ReadAt(data, 0); err != nil && err != io.EOF {
				return fmt.Errorf("read file %q: %w", f.name, err)
			}
		}
		if err := sw.WriteExtent(f.lba, data); err != nil {
			return err
		}
	}
	for _, child := range d.children {
		if err := writeFiles(child, sw); err != nil {
			return err
		}
	}
	return nil
}

// Blank reference to encoding.EncodeUCS2BigEndian. It has no effect on
// pkg/directory; Write also uses the encoding package directly for the
// SVD's both-byte-order fields.
var _ = encoding.EncodeUCS2BigEndian
