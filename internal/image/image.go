// Package image is the sector-addressed image writer: every other package
// hands it either a block of user data (up to 2048 bytes, framed as a Mode 2
// Form 1 sector, or up to 2324 bytes, framed as a Mode 2 Form 2 sector) or
// a pre-framed 2352-byte raw sector (CD-DA
// payload, silence lead-in). It tracks the current LBA the way the
// teacher's writeAtSectorAndPad keeps the caller's sector bookkeeping
// explicit rather than hidden behind a generic io.Writer position.
package image

import (
	"fmt"
	"io"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/sector"
)

// Writer sequences sector-sized writes to an underlying io.WriteSeeker,
// always addressed by LBA rather than byte offset.
type Writer struct {
	w   io.WriteSeeker
	lba uint32
}

// New wraps w, starting bookkeeping at LBA 0.
func New(w io.WriteSeeker) *Writer {
	return &Writer{w: w}
}

// CurrentLBA returns the next LBA that will be written.
func (iw *Writer) CurrentLBA() uint32 { return iw.lba }

// SeekTo moves the write cursor to an explicit LBA without writing
// anything, used when the layout plan has already reserved a gap (e.g.
// padding between the terminator and the first path table copy never
// happens in practice, but directory extents computed ahead of the
// traversal can still require a jump).
func (iw *Writer) SeekTo(lba uint32) error {
	if _, err := iw.w.Seek(int64(lba)*int64(sector.Size), io.SeekStart); err != nil {
		return err
	}
	iw.lba = lba
	return nil
}

// WriteBlank writes count sectors of Form 1 zero data, used for the
// 16-sector system area.
func (iw *Writer) WriteBlank(count uint32) error {
	zero := make([]byte, sector.Form1UserSize)
	for i := uint32(0); i < count; i++ {
		if err := iw.WriteForm1(sector.SubData, zero); err != nil {
			return err
		}
	}
	return nil
}

// WriteForm1 frames payload (at most 2048 bytes, zero-padded) as a single
// Mode 2 Form 1 sector at the current LBA and advances the cursor by one.
func (iw *Writer) WriteForm1(sub sector.Subheader, payload []byte) error {
	return iw.writeRaw(sector.Encode(iw.lba, sub, sector.Form1, padTo(payload, sector.Form1UserSize)))
}

// WriteForm2 frames payload (at most 2324 bytes, zero-padded) as a single
// Mode 2 Form 2 sector at the current LBA and advances the cursor by one.
func (iw *Writer) WriteForm2(sub sector.Subheader, payload []byte) error {
	return iw.writeRaw(sector.Encode(iw.lba, sub, sector.Form2, padTo(payload, sector.Form2UserSize)))
}

// WriteForm1Blocks splits data into consecutive 2048-byte Form 1 sectors,
// marking the last sector SubEOF, the rest SubData.
func (iw *Writer) WriteForm1Blocks(data []byte) error {
	return iw.writeBlocks(data, sector.Form1UserSize, func(last bool) sector.Subheader {
		if last {
			return sector.SubEOF
		}
		return sector.SubData
	}, iw.WriteForm1)
}

// WriteForm1StreamBlocks splits data into consecutive 2048-byte Form 1
// sectors for a data-only stream (STR video with no interleaved audio),
// marking every sector but the last SubSTR rather than SubData.
func (iw *Writer) WriteForm1StreamBlocks(data []byte) error {
	return iw.writeBlocks(data, sector.Form1UserSize, func(last bool) sector.Subheader {
		if last {
			return sector.SubEOF
		}
		return sector.SubSTR
	}, iw.WriteForm1)
}

// WriteForm2Blocks splits data into consecutive 2324-byte Form 2 sectors
// (pure XA audio/stream payloads), marking the last sector SubEOF.
func (iw *Writer) WriteForm2Blocks(data []byte) error {
	return iw.writeBlocks(data, sector.Form2UserSize, func(last bool) sector.Subheader {
		if last {
			return sector.SubEOF
		}
		return sector.SubSTR
	}, iw.WriteForm2)
}

func (iw *Writer) writeBlocks(data []byte, blockSize int, subFor func(last bool) sector.Subheader, write func(sector.Subheader, []byte) error) error {
	if len(data) == 0 {
		return write(subFor(true), nil)
	}
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		last := end >= len(data)
		if err := write(subFor(last), data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// WriteRawSector writes a single already-framed 2352-byte sector
// (silence, or a pre-encoded CD-DA frame) without running it through the
// sector codec.
func (iw *Writer) WriteRawSector(raw []byte) error {
	if len(raw) != sector.Size {
		return &buildcfg.FormatError{Msg: fmt.Sprintf("raw sector must be %d bytes, got %d", sector.Size, len(raw))}
	}
	return iw.writeRaw(raw)
}

// WriteSilence writes count raw 2352-byte zero sectors, used for CD-DA
// pregaps and lead-ins.
func (iw *Writer) WriteSilence(count uint32) error {
	zero := make([]byte, sector.Size)
	for i := uint32(0); i < count; i++ {
		if err := iw.writeRaw(zero); err != nil {
			return err
		}
	}
	return nil
}

func (iw *Writer) writeRaw(raw []byte) error {
	n, err := iw.w.Write(raw)
	if err != nil {
		return err
	}
	if n != len(raw) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(raw))
	}
	iw.lba++
	return nil
}

func padTo(b []byte, size int) []byte {
	if len(b) == size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
