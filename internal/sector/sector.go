// Package sector encodes and decodes raw 2352-byte CD-ROM XA sectors:
// the sync pattern, the MSF/mode header, the duplicated subheader, and
// the Mode 2 Form 1 / Form 2 payload with EDC and (Form 1 only) ECC.
package sector

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/charlesthegreat77/psxdisc/internal/ecc"
)

// Size is the raw size of every sector on the image, sync through ECC.
const Size = 2352

// Form1UserSize and Form2UserSize are the user-data payload sizes for
// Mode 2 Form 1 and Form 2 sectors respectively.
const (
	Form1UserSize = 2048
	Form2UserSize = 2324
)

// Subheader values used by this tool. Each is duplicated into both
// 4-byte subheader copies (bytes 16..19 and 20..23).
type Subheader uint32

const (
	SubData Subheader = 0x00080000 // ordinary data sector
	SubSTR  Subheader = 0x00480000 // streaming (video) data
	SubEOF  Subheader = 0x00890000 // last sector of a file
	SubEOL  Subheader = 0x00810000 // last sector of a logical record
)

var syncPattern = [12]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// Form is the CD-XA sector form selector for a payload write.
type Form int

const (
	Form1 Form = iota
	Form2
)

// MSF is a minute/second/frame address in the usual 150-sector offset
// convention (LBA 0 == MSF 00:02:00).
type MSF struct {
	Minute, Second, Frame byte
}

// MSFForLBA converts a logical block address to its on-disc MSF address.
func MSFForLBA(lba uint32) MSF {
	abs := lba + 150
	return MSF{
		Minute: byte(abs / 4500),
		Second: byte((abs / 75) % 60),
		Frame:  byte(abs % 75),
	}
}

func toBCD(v byte) byte {
	return ((v / 10) << 4) | (v % 10)
}

func fromBCD(v byte) byte {
	return (v>>4)*10 + (v & 0x0F)
}

// String renders an MSF the way CUE sheets expect it: mm:ss:ff.
func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.Minute, m.Second, m.Frame)
}

// Encode writes the 2352-byte sector for lba with the given subheader and
// form, packaging payload (Form1UserSize or Form2UserSize bytes) with EDC
// and, for Form 1, ECC. The returned slice is always sector.Size bytes.
func Encode(lba uint32, sub Subheader, form Form, payload []byte) []byte {
	out := make([]byte, Size)
	copy(out[0:12], syncPattern[:])

	msf := MSFForLBA(lba)
	out[12] = toBCD(msf.Minute)
	out[13] = toBCD(msf.Second)
	out[14] = toBCD(msf.Frame)
	out[15] = 0x02 // mode 2

	var subBytes [4]byte
	binary.LittleEndian.PutUint32(subBytes[:], uint32(sub))
	copy(out[16:20], subBytes[:])
	copy(out[20:24], subBytes[:])

	switch form {
	case Form1:
		if len(payload) > Form1UserSize {
			panic(fmt.Sprintf("sector.Encode: Form1 payload %d exceeds %d", len(payload), Form1UserSize))
		}
		copy(out[24:24+Form1UserSize], payload)
		// EDC covers the subheader + user data (bytes 16..2071).
		edc := crc32.ChecksumIEEE(out[16:2072])
		binary.LittleEndian.PutUint32(out[2072:2076], edc)

		ecc.Generate(out[12:])
	case Form2:
		if len(payload) > Form2UserSize {
			panic(fmt.Sprintf("sector.Encode: Form2 payload %d exceeds %d", len(payload), Form2UserSize))
		}
		copy(out[24:24+Form2UserSize], payload)
		edc := crc32.ChecksumIEEE(out[16 : 24+Form2UserSize])
		binary.LittleEndian.PutUint32(out[2348:2352], edc)
	default:
		panic(fmt.Sprintf("sector.Encode: unknown form %d", form))
	}
	return out
}

// DecodeMSF reads back the MSF address header of an encoded sector.
func DecodeMSF(raw []byte) MSF {
	return MSF{
		Minute: fromBCD(raw[12]),
		Second: fromBCD(raw[13]),
		Frame:  fromBCD(raw[14]),
	}
}

// VerifySync reports whether the 12-byte sync pattern at the start of raw
// matches the CD-ROM XA sync sequence.
func VerifySync(raw []byte) bool {
	if len(raw) < 12 {
		return false
	}
	for i, b := range syncPattern {
		if raw[i] != b {
			return false
		}
	}
	return true
}

// VerifyForm1EDC recomputes and compares the Form 1 EDC field.
func VerifyForm1EDC(raw []byte) bool {
	if len(raw) < 2076 {
		return false
	}
	got := binary.LittleEndian.Uint32(raw[2072:2076])
	want := crc32.ChecksumIEEE(raw[16:2072])
	return got == want
}

// VerifyForm2EDC recomputes and compares the Form 2 EDC field.
func VerifyForm2EDC(raw []byte) bool {
	if len(raw) < Size {
		return false
	}
	got := binary.LittleEndian.Uint32(raw[2348:2352])
	want := crc32.ChecksumIEEE(raw[16:2348])
	return got == want
}
