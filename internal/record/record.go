// Package record encodes ISO9660 directory records and, unless the build
// disables CD-XA, the 14-byte XA attribute record appended to each one.
// Only a single (non-Joliet) record set is produced per directory, per the
// project's decision to drop Joliet support.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

// FixedPartSize is the size of a Directory Record excluding the
// identifier and any XA attribute record (ECMA-119 Section 9.1).
const FixedPartSize = 33

// XAAttributeSize is the size of the CD-XA attribute record appended
// after a Directory Record's identifier and padding byte.
const XAAttributeSize = 14

const (
	flagHidden    byte = 0x01
	flagDirectory byte = 0x02
)

type fixedFields struct {
	ExtAttrLen   byte
	ExtentLBA    uint32
	DataLength   uint32
	RecordTime   [7]byte
	FileFlags    byte
	FileUnit     byte
	InterleaveGp byte
	VolSeqNum    uint16
}

func marshalFixed(f *fixedFields, identifier []byte, xa []byte) []byte {
	idLen := byte(len(identifier))
	recordLen := FixedPartSize + len(identifier) + len(xa)
	if recordLen%2 != 0 {
		recordLen++
	}

	buf := make([]byte, recordLen)
	buf[0] = byte(recordLen)
	buf[1] = f.ExtAttrLen
	binary.LittleEndian.PutUint32(buf[2:6], f.ExtentLBA)
	binary.BigEndian.PutUint32(buf[6:10], f.ExtentLBA)
	binary.LittleEndian.PutUint32(buf[10:14], f.DataLength)
	binary.BigEndian.PutUint32(buf[14:18], f.DataLength)
	copy(buf[18:25], f.RecordTime[:])
	buf[25] = f.FileFlags
	buf[26] = f.FileUnit
	buf[27] = f.InterleaveGp
	binary.LittleEndian.PutUint16(buf[28:30], f.VolSeqNum)
	binary.BigEndian.PutUint16(buf[30:32], f.VolSeqNum)
	buf[32] = idLen
	copy(buf[33:], identifier)
	if len(xa) > 0 {
		copy(buf[33+len(identifier)+((len(identifier)+1)%2):], xa)
	}
	return buf
}

// xaAttribute builds the 14-byte CD-XA attribute record for a non-dummy
// entry. Directories get the directory bit set in the attribute field;
// everything else is marked as an ordinary Mode 2 Form 1/Form 2 file.
func xaAttribute(e *tree.Entry) []byte {
	buf := make([]byte, XAAttributeSize)
	// bytes 0-1, 2-3: owner/group IDs, unused here.
	var attr uint16 = 0x5500 // read permission bits for owner/group/world, per common mkpsxiso output
	if e.Kind == tree.KindDir {
		attr |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[4:6], attr)
	copy(buf[6:8], []byte("XA"))
	// bytes 8-13: file number + reserved, left zero.
	return buf
}

func identifierBytes(e *tree.Entry, name string, isRoot bool) []byte {
	switch name {
	case ".":
		if isRoot {
			return []byte{0x00}
		}
		return []byte{0x00}
	case "..":
		return []byte{0x01}
	default:
		return []byte(name)
	}
}

// Size returns the marshalled byte length (including XA attribute and
// even-length padding) of a directory record for name, so the layout
// planner can size directory extents without building the record twice.
func Size(name string, withXA bool) int {
	idLen := len(identifierBytes(&tree.Entry{}, name, name == "." || name == ".."))
	total := FixedPartSize + idLen
	if withXA {
		total += XAAttributeSize
	}
	if total%2 != 0 {
		total++
	}
	return total
}

func populate(f *fixedFields, extentLBA, dataLength uint32, isDir, hidden bool, mtime time.Time) {
	f.ExtAttrLen = 0
	f.ExtentLBA = extentLBA
	f.DataLength = dataLength
	f.RecordTime[0] = byte(mtime.Year() - 1900)
	f.RecordTime[1] = byte(mtime.Month())
	f.RecordTime[2] = byte(mtime.Day())
	f.RecordTime[3] = byte(mtime.Hour())
	f.RecordTime[4] = byte(mtime.Minute())
	f.RecordTime[5] = byte(mtime.Second())
	f.RecordTime[6] = 0
	var flags byte
	if isDir {
		flags |= flagDirectory
	}
	if hidden {
		flags |= flagHidden
	}
	f.FileFlags = flags
	f.FileUnit = 0
	f.InterleaveGp = 0
	f.VolSeqNum = 1
}

// extentFields computes the Directory Record's LocationExtent and
// DataLength for an entry, per-kind: DA tracks report their data length
// in 2048-byte logical-block units rounded from the 2352-byte physical
// sector count, and their recorded LBA is shifted 150 sectors past the
// entry's own bookkeeping position to point at the payload rather than
// at its pregap/lead-in.
func extentFields(e *tree.Entry) (lba, dataLen uint32) {
	switch e.Kind {
	case tree.KindXA, tree.KindStream:
		sectors := (e.Size + 2335) / 2336
		return e.Sector, sectors * 2048
	case tree.KindDA:
		sectors := (e.Size + 2351) / 2352
		return e.Sector + 150, sectors * 2048
	default:
		return e.Sector, e.Size
	}
}

// One builds the directory record bytes for a single entry as it will
// appear inside its parent's listing (or the PVD root record, when name
// is "." and isRoot is true).
func One(e *tree.Entry, name string, isRoot, withXA bool, now time.Time) []byte {
	lba, dataLen := extentFields(e)
	var f fixedFields
	populate(&f, lba, dataLen, e.Kind == tree.KindDir, e.Hidden, now)
	ident := identifierBytes(e, name, isRoot)
	var xa []byte
	if withXA {
		xa = xaAttribute(e)
	}
	return marshalFixed(&f, ident, xa)
}

// Listing builds the full byte stream for a directory's contents: the
// "." and ".." records followed by every non-dummy child's record, none
// of which are permitted to straddle a 2048-byte block boundary.
func Listing(t *tree.Tree, dirIdx int, withXA bool, now time.Time) ([]byte, error) {
	buf := new(bytes.Buffer)
	self := &t.Entries[dirIdx]
	isRoot := dirIdx == 0

	dotBytes := One(self, ".", isRoot, withXA, now)
	if err := appendWithoutCrossingBlock(buf, dotBytes); err != nil {
		return nil, fmt.Errorf("'.' record for dir index %d: %w", dirIdx, err)
	}

	parent := &t.Entries[self.ParentIndex]
	dotdotBytes := One(parent, "..", false, withXA, now)
	if err := appendWithoutCrossingBlock(buf, dotdotBytes); err != nil {
		return nil, fmt.Errorf("'..' record for dir index %d: %w", dirIdx, err)
	}

	for _, childIdx := range self.Children {
		child := &t.Entries[childIdx]
		if child.Kind == tree.KindDummy {
			continue
		}
		recBytes := One(child, child.Name, false, withXA, now)
		if err := appendWithoutCrossingBlock(buf, recBytes); err != nil {
			return nil, fmt.Errorf("record for %q: %w", child.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// appendWithoutCrossingBlock pads buf out to the next 2048-byte boundary
// with zeros before writing rec if rec would otherwise straddle one, per
// ECMA-119 6.8.1.1 (no Directory Record may span more than one logical
// block).
func appendWithoutCrossingBlock(buf *bytes.Buffer, rec []byte) error {
	const block = 2048
	if len(rec) > block {
		return &buildcfg.FormatError{Msg: "directory record larger than one logical block"}
	}
	used := buf.Len() % block
	if used+len(rec) > block {
		pad := block - used
		buf.Write(make([]byte, pad))
	}
	buf.Write(rec)
	return nil
}
