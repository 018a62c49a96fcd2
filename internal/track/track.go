// Package track sequences the CD-DA audio tracks that follow the data
// track and writes the accompanying CUE sheet. It consumes the LBAs the
// layout package already assigned: the first DA track's pregap is purely
// a CUE directive, every later one gets 150 sectors of real silence
// written ahead of its payload.
package track

import (
	"fmt"
	"io"
	"strings"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/image"
	"github.com/charlesthegreat77/psxdisc/internal/sector"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

// leadInSectors is the number of raw silent sectors written ahead of
// every CD-DA track after the first.
const leadInSectors = 150

// Sheet accumulates CUE sheet lines as tracks are sequenced.
type Sheet struct {
	binName string
	lines   []string
	track   int
}

// NewSheet starts a CUE sheet naming binName as its FILE, with the data
// track's header already emitted.
func NewSheet(binName string) *Sheet {
	s := &Sheet{binName: binName}
	s.lines = append(s.lines, fmt.Sprintf("FILE %q BINARY", binName))
	s.track = 1
	s.lines = append(s.lines, "  TRACK 01 MODE2/2352")
	s.lines = append(s.lines, "    INDEX 01 00:00:00")
	return s
}

// addAudioTrack appends one CD-DA track's lines: a PREGAP directive for
// the first track (no physical silence), an INDEX 00 lead-in line for
// every subsequent one (whose silence was already written to the image).
func (s *Sheet) addAudioTrack(first bool, trackLBA uint32) {
	s.track++
	s.lines = append(s.lines, fmt.Sprintf("  TRACK %02d AUDIO", s.track))
	if first {
		s.lines = append(s.lines, "    PREGAP 00:02:00")
		s.lines = append(s.lines, fmt.Sprintf("    INDEX 01 %s", sector.MSFForLBA(trackLBA+leadInSectors)))
		return
	}
	s.lines = append(s.lines, fmt.Sprintf("    INDEX 00 %s", sector.MSFForLBA(trackLBA)))
	s.lines = append(s.lines, fmt.Sprintf("    INDEX 01 %s", sector.MSFForLBA(trackLBA+leadInSectors)))
}

// String renders the accumulated CUE sheet.
func (s *Sheet) String() string {
	return strings.Join(s.lines, "\n") + "\n"
}

// WriteTo writes the rendered CUE sheet to w.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// Sequence walks the tree's DA entries in ascending LBA order (the order
// layout.Run discovered them, which is also traversal order because a DA
// entry can never precede one at a lower LBA within this tool's layout),
// writing each one's audio payload to iw and recording its CUE lines.
//
// daOrder must list DA entry indices in the order layout assigned them
// LBAs; callers get this from layout.Plan.DATrackLBAs by sorting its
// keys on their LBA values.
func Sequence(sheet *Sheet, t *tree.Tree, iw *image.Writer, daOrder []int, readPayload func(idx int) ([]byte, error)) error {
	for i, idx := range daOrder {
		e := &t.Entries[idx]
		first := i == 0

		if !first {
			if err := iw.WriteSilence(leadInSectors); err != nil {
				return fmt.Errorf("writing lead-in for %q: %w", e.Name, err)
			}
		}

		payload, err := readPayload(idx)
		if err != nil {
			return &buildcfg.SourceIOError{Path: e.SourcePath, Err: err}
		}
		if err := writeAudioSectors(iw, payload); err != nil {
			return fmt.Errorf("writing audio payload for %q: %w", e.Name, err)
		}

		sheet.addAudioTrack(first, e.Sector)
	}
	return nil
}

// writeAudioSectors splits a raw CD-DA payload into 2352-byte sectors and
// writes each one verbatim; a short final chunk is zero-padded to a full
// sector, matching how a WAV whose data isn't a sector multiple still
// occupies whole sectors on disc.
func writeAudioSectors(iw *image.Writer, payload []byte) error {
	for off := 0; off < len(payload); off += sector.Size {
		end := off + sector.Size
		var chunk []byte
		if end > len(payload) {
			chunk = make([]byte, sector.Size)
			copy(chunk, payload[off:])
		} else {
			chunk = payload[off:end]
		}
		if err := iw.WriteRawSector(chunk); err != nil {
			return err
		}
	}
	if len(payload) == 0 {
		return iw.WriteRawSector(make([]byte, sector.Size))
	}
	return nil
}
