// Package descriptor encodes the Primary Volume Descriptor and the Volume
// Descriptor Set Terminator. Only a single (non-Joliet) descriptor is
// produced, and a CD-XA signature is stamped into its application-use area
// unless the build disables CD-XA.
package descriptor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/record"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

const (
	vdTypePrimary    byte = 1
	vdTypeTerminator byte = 255
	standardID            = "CD001"
)

// SectorSize is the logical block size every descriptor, path table, and
// directory record is addressed in.
const SectorSize = 2048

func marshalHeader(vdType byte) []byte {
	buf := make([]byte, 7)
	buf[0] = vdType
	copy(buf[1:6], []byte(standardID))
	buf[6] = 1
	return buf
}

func padString(s string, length int) []byte {
	b := bytes.Repeat([]byte{' '}, length)
	copy(b, s)
	if len(s) > length {
		copy(b, s[:length])
	}
	return b
}

func formatTimestamp(t time.Time) []byte {
	buf := make([]byte, 17)
	if t.IsZero() {
		for i := 0; i < 16; i++ {
			buf[i] = '0'
		}
		return buf
	}
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02d00", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	copy(buf, s)
	buf[16] = 0
	return buf
}

// Params carries everything the PVD needs beyond the tree itself.
type Params struct {
	SystemIdentifier       string
	VolumeIdentifier       string
	VolumeSetIdentifier    string
	PublisherIdentifier    string
	DataPreparerIdentifier string
	ApplicationIdentifier  string
	CopyrightFile          string
	TotalSectors           uint32
	PathTableSizeBytes     uint32
	LPathTableLBA          uint32
	LPathTableLBA2         uint32
	MPathTableLBA          uint32
	MPathTableLBA2         uint32
	NoXA                   bool
}

// Primary builds the 2048-byte Primary Volume Descriptor sector.
func Primary(t *tree.Tree, p Params, now time.Time) ([]byte, error) {
	sector := make([]byte, SectorSize)
	copy(sector[0:7], marshalHeader(vdTypePrimary))

	root := &t.Entries[0]
	rootDR := record.One(root, ".", true, false, now)
	if len(rootDR) > 34 {
		return nil, &buildcfg.FormatError{Msg: fmt.Sprintf("root directory record %d bytes, PVD field only holds 34", len(rootDR))}
	}
	var rootField [34]byte
	copy(rootField[:], rootDR)

	fields := new(bytes.Buffer)
	fields.WriteByte(0) // unused
	fields.Write(padString(p.SystemIdentifier, 32))
	fields.Write(padString(p.VolumeIdentifier, 32))
	fields.Write(make([]byte, 8)) // unused

	binary.Write(fields, binary.LittleEndian, p.TotalSectors)
	binary.Write(fields, binary.BigEndian, p.TotalSectors)

	fields.Write(make([]byte, 32)) // escape sequences, unused without Joliet

	binary.Write(fields, binary.LittleEndian, uint16(1)) // volume set size
	binary.Write(fields, binary.BigEndian, uint16(1))
	binary.Write(fields, binary.LittleEndian, uint16(1)) // volume sequence number
	binary.Write(fields, binary.BigEndian, uint16(1))
	binary.Write(fields, binary.LittleEndian, uint16(SectorSize))
	binary.Write(fields, binary.BigEndian, uint16(SectorSize))
	binary.Write(fields, binary.LittleEndian, p.PathTableSizeBytes)
	binary.Write(fields, binary.BigEndian, p.PathTableSizeBytes)

	binary.Write(fields, binary.LittleEndian, p.LPathTableLBA)
	binary.Write(fields, binary.LittleEndian, p.LPathTableLBA2)
	binary.Write(fields, binary.BigEndian, p.MPathTableLBA)
	binary.Write(fields, binary.BigEndian, p.MPathTableLBA2)

	fields.Write(rootField[:])
	fields.Write(padString(p.VolumeSetIdentifier, 128))
	fields.Write(padString(p.PublisherIdentifier, 128))
	fields.Write(padString(p.DataPreparerIdentifier, 128))
	fields.Write(padString(p.ApplicationIdentifier, 128))
	fields.Write(padString(p.CopyrightFile, 37))
	fields.Write(padString("", 37)) // abstract file identifier, unused
	fields.Write(padString("", 37)) // bibliographic file identifier, unused

	fields.Write(formatTimestamp(now))
	fields.Write(formatTimestamp(now))
	fields.Write(formatTimestamp(time.Time{})) // expiration, not specified
	fields.Write(formatTimestamp(now))
	fields.WriteByte(1) // file structure version

	copy(sector[7:], fields.Bytes())

	if !p.NoXA {
		// CD-XA discs carry a "CD-XA001" signature at bytes 141..148 of
		// the application-use area (which itself starts at PVD byte
		// 883), so that BIOS and driver code can detect CD-XA
		// extensions without probing subheaders.
		const appUseStart = 883
		copy(sector[appUseStart+141:appUseStart+149], []byte("CD-XA001"))
	}
	return sector, nil
}

// Terminator builds the Volume Descriptor Set Terminator sector.
func Terminator() []byte {
	sector := make([]byte, SectorSize)
	copy(sector[0:7], marshalHeader(vdTypeTerminator))
	return sector
}
