// Package build orchestrates a full image build: it drives the layout
// planner, then every encoder (descriptor, path table, directory record,
// sector codec, track sequencer) in turn to produce the .bin and .cue
// files. It mirrors the teacher's ISOBuilder.Build in shape — scan (done
// by the caller via project.BuildTree), calculateLayout, then a fixed
// sequence of write phases — collapsed to single-descriptor ISO9660 +
// CD-XA with CD-DA tracks instead of ISO9660+Joliet.
package build

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/descriptor"
	"github.com/charlesthegreat77/psxdisc/internal/image"
	"github.com/charlesthegreat77/psxdisc/internal/layout"
	"github.com/charlesthegreat77/psxdisc/internal/pathtable"
	"github.com/charlesthegreat77/psxdisc/internal/progress"
	"github.com/charlesthegreat77/psxdisc/internal/record"
	"github.com/charlesthegreat77/psxdisc/internal/sector"
	"github.com/charlesthegreat77/psxdisc/internal/track"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
	"github.com/charlesthegreat77/psxdisc/internal/wav"
)

const (
	systemAreaSectors = 16
	licenseMaxBytes   = systemAreaSectors * sector.Form1UserSize
)

// Builder drives a single image build from an already-populated tree.
type Builder struct {
	Config *buildcfg.Config
	Tree   *tree.Tree
	Rep    progress.Reporter

	// Now is the timestamp stamped into every directory record and
	// volume descriptor; tests inject a fixed value for determinism.
	Now time.Time

	plan *layout.Plan
}

// New returns a Builder ready to run, defaulting Rep to a silent
// reporter and Now to the current time if unset.
func New(cfg *buildcfg.Config, t *tree.Tree) *Builder {
	return &Builder{Config: cfg, Tree: t, Rep: progress.Silent{}, Now: time.Now()}
}

// Plan runs the layout pass without writing anything, exposing it for
// `inspect`-style LBA listings.
func (b *Builder) Plan() (*layout.Plan, error) {
	if b.plan == nil {
		p, err := layout.Run(b.Tree, !b.Config.NoXA)
		if err != nil {
			return nil, err
		}
		b.plan = p
	}
	return b.plan, nil
}

// Build computes the layout and writes the image and CUE sheet. On any
// failure after the output file was created, the partial file is
// removed rather than left around half-written.
func (b *Builder) Build() (err error) {
	plan, err := b.Plan()
	if err != nil {
		return fmt.Errorf("calculating layout: %w", err)
	}

	f, err := os.Create(b.Config.ImageName)
	if err != nil {
		return &buildcfg.SinkIOError{Path: b.Config.ImageName, Err: err}
	}
	defer func() {
		closeErr := f.Close()
		if err != nil {
			os.Remove(b.Config.ImageName)
			return
		}
		if closeErr != nil {
			err = &buildcfg.SinkIOError{Path: b.Config.ImageName, Err: closeErr}
			os.Remove(b.Config.ImageName)
		}
	}()

	iw := image.New(f)

	if err = b.writeSystemArea(iw); err != nil {
		return fmt.Errorf("writing system area: %w", err)
	}
	if err = b.writeVolumeDescriptors(iw, plan); err != nil {
		return fmt.Errorf("writing volume descriptors: %w", err)
	}
	if err = b.writeAllPathTables(iw, plan); err != nil {
		return fmt.Errorf("writing path tables: %w", err)
	}
	if err = b.writeDataTrack(iw); err != nil {
		return fmt.Errorf("writing data track: %w", err)
	}

	sheet := track.NewSheet(baseName(b.Config.ImageName))
	if err = b.writeAudioTracks(iw, plan, sheet); err != nil {
		return fmt.Errorf("writing audio tracks: %w", err)
	}
	if err = b.finalizeImageSize(f, plan); err != nil {
		return fmt.Errorf("finalizing image size: %w", err)
	}

	if err = b.writeCueSheet(sheet); err != nil {
		return fmt.Errorf("writing cue sheet: %w", err)
	}
	b.Rep.Infof("wrote %s (%d sectors) and %s", b.Config.ImageName, plan.TotalSectors, b.Config.CueSheet)
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// writeSystemArea fills LBAs 0..15 with the PSX license binary when
// configured, zero otherwise.
func (b *Builder) writeSystemArea(iw *image.Writer) error {
	if b.Config.LicenseFile == "" {
		return iw.WriteBlank(systemAreaSectors)
	}
	data, err := os.ReadFile(b.Config.LicenseFile)
	if err != nil {
		return &buildcfg.SourceIOError{Path: b.Config.LicenseFile, Err: err}
	}
	if len(data) > licenseMaxBytes {
		return &buildcfg.ValidationError{Path: b.Config.LicenseFile, Msg: fmt.Sprintf("license file %d bytes exceeds system area capacity %d", len(data), licenseMaxBytes)}
	}
	padded := make([]byte, licenseMaxBytes)
	copy(padded, data)
	for off := 0; off < licenseMaxBytes; off += sector.Form1UserSize {
		if err := iw.WriteForm1(sector.SubData, padded[off:off+sector.Form1UserSize]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeVolumeDescriptors(iw *image.Writer, plan *layout.Plan) error {
	params := descriptor.Params{
		SystemIdentifier:       b.Config.SystemIdentifier,
		VolumeIdentifier:       b.Config.VolumeIdentifier,
		VolumeSetIdentifier:    b.Config.VolumeSetIdentifier,
		PublisherIdentifier:    b.Config.PublisherIdentifier,
		DataPreparerIdentifier: b.Config.DataPreparerIdentifier,
		ApplicationIdentifier:  b.Config.ApplicationIdentifier,
		CopyrightFile:          b.Config.CopyrightFile,
		TotalSectors:           plan.TotalSectors,
		PathTableSizeBytes:     plan.PathTableSizeBytes,
		LPathTableLBA:          plan.LPathTableLBA,
		LPathTableLBA2:         plan.LPathTableLBA2,
		MPathTableLBA:          plan.MPathTableLBA,
		MPathTableLBA2:         plan.MPathTableLBA2,
		NoXA:                   b.Config.NoXA,
	}
	pvd, err := descriptor.Primary(b.Tree, params, b.Now)
	if err != nil {
		return err
	}
	if err := iw.WriteForm1(sector.SubData, pvd); err != nil {
		return err
	}
	return iw.WriteForm1(sector.SubData, descriptor.Terminator())
}

func (b *Builder) writeAllPathTables(iw *image.Writer, plan *layout.Plan) error {
	lData := pathtable.Encode(b.Tree, false)
	mData := pathtable.Encode(b.Tree, true)
	ptSectors := (plan.PathTableSizeBytes + 2047) / 2048

	writeCopy := func(lba uint32, data []byte) error {
		if err := iw.SeekTo(lba); err != nil {
			return err
		}
		padded := make([]byte, ptSectors*2048)
		copy(padded, data)
		for off := uint32(0); off < ptSectors*2048; off += 2048 {
			if err := iw.WriteForm1(sector.SubData, padded[off:off+2048]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeCopy(plan.LPathTableLBA, lData); err != nil {
		return err
	}
	if err := writeCopy(plan.LPathTableLBA2, lData); err != nil {
		return err
	}
	if err := writeCopy(plan.MPathTableLBA, mData); err != nil {
		return err
	}
	return writeCopy(plan.MPathTableLBA2, mData)
}

// writeDataTrack writes every directory listing and file payload in
// ascending LBA order, which is the same order the layout walk assigned
// them (DA entries are excluded; writeAudioTracks handles those).
func (b *Builder) writeDataTrack(iw *image.Writer) error {
	idxs := b.nonAudioEntriesByLBA()
	for _, idx := range idxs {
		e := &b.Tree.Entries[idx]
		if err := iw.SeekTo(e.Sector); err != nil {
			return err
		}
		switch e.Kind {
		case tree.KindDir:
			if err := b.writeDirectory(iw, idx); err != nil {
				return err
			}
		case tree.KindDummy:
			if err := iw.WriteBlank(e.Size / sector.Form1UserSize); err != nil {
				return err
			}
		default:
			if err := b.writeFileData(iw, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) nonAudioEntriesByLBA() []int {
	var idxs []int
	for i, e := range b.Tree.Entries {
		if e.Kind == tree.KindDA {
			continue
		}
		idxs = append(idxs, i)
	}
	sort.Slice(idxs, func(i, j int) bool {
		return b.Tree.Entries[idxs[i]].Sector < b.Tree.Entries[idxs[j]].Sector
	})
	return idxs
}

func (b *Builder) writeDirectory(iw *image.Writer, dirIdx int) error {
	listing, err := record.Listing(b.Tree, dirIdx, !b.Config.NoXA, b.Now)
	if err != nil {
		return err
	}
	alloc := b.Tree.Entries[dirIdx].Size
	if uint32(len(listing)) > alloc {
		return &buildcfg.FormatError{Msg: fmt.Sprintf("directory listing %d bytes exceeds allocated extent %d", len(listing), alloc)}
	}
	padded := make([]byte, alloc)
	copy(padded, listing)
	for off := uint32(0); off < alloc; off += sector.Form1UserSize {
		if err := iw.WriteForm1(sector.SubData, padded[off:off+sector.Form1UserSize]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeFileData(iw *image.Writer, e *tree.Entry) error {
	data, err := os.ReadFile(e.SourcePath)
	if err != nil {
		return &buildcfg.SourceIOError{Path: e.SourcePath, Err: err}
	}
	if uint32(len(data)) != e.Size {
		return &buildcfg.ValidationError{Path: e.SourcePath, Msg: fmt.Sprintf("source is %d bytes, tree entry recorded %d", len(data), e.Size)}
	}

	switch e.Kind {
	case tree.KindFile:
		return iw.WriteForm1Blocks(data)
	case tree.KindStreamDataOnly:
		return iw.WriteForm1StreamBlocks(data)
	case tree.KindXA:
		return iw.WriteForm2Blocks(data)
	case tree.KindStream:
		return writeInterleavedStream(iw, data)
	default:
		return &buildcfg.FormatError{Path: e.SourcePath, Msg: fmt.Sprintf("unexpected kind %s in file data writer", e.Kind)}
	}
}

// strChunkSize is the on-disk unit for an interleaved Form1/Form2 STR
// file: an 8-byte duplicated subheader followed by the 2328-byte rest of
// the sector body (user data plus EDC, and ECC for Form 1), of which only
// the user-data part is passed on, matching how mkpsxiso's packed STR sources lay
// subheader bytes directly ahead of each sector's payload.
const strChunkSize = 8 + 2328

// writeInterleavedStream splits an interleaved STR source into per-sector
// chunks and writes each as Form 1 or Form 2 depending on the form-2 bit
// (0x20) of the chunk's own embedded submode byte.
func writeInterleavedStream(iw *image.Writer, data []byte) error {
	for off := 0; off < len(data); off += strChunkSize {
		end := off + strChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		if len(chunk) < 8 {
			break
		}
		submode := chunk[2]
		sub := sector.Subheader(uint32(chunk[0]) | uint32(chunk[1])<<8 | uint32(chunk[2])<<16 | uint32(chunk[3])<<24)
		payload := chunk[8:]
		if submode&0x20 != 0 {
			if err := iw.WriteForm2(sub, payload); err != nil {
				return err
			}
		} else {
			if err := iw.WriteForm1(sub, payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) writeAudioTracks(iw *image.Writer, plan *layout.Plan, sheet *track.Sheet) error {
	if len(plan.DATrackLBAs) == 0 {
		return nil
	}
	order := make([]int, 0, len(plan.DATrackLBAs))
	for idx := range plan.DATrackLBAs {
		order = append(order, idx)
	}
	sort.Slice(order, func(i, j int) bool {
		return plan.DATrackLBAs[order[i]] < plan.DATrackLBAs[order[j]]
	})

	first := b.Tree.Entries[order[0]].Sector
	if err := iw.SeekTo(first); err != nil {
		return err
	}
	return track.Sequence(sheet, b.Tree, iw, order, func(idx int) ([]byte, error) {
		e := &b.Tree.Entries[idx]
		return readAudioPayload(e.SourcePath, b.Rep)
	})
}

// readAudioPayload reads just the PCM data chunk of a WAV source (or the
// whole file, for a raw-PCM source with no RIFF header), the same region
// wav.Inspect sized the tree entry from.
func readAudioPayload(path string, rep progress.Reporter) ([]byte, error) {
	info, err := wav.Inspect(path, rep)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	end := info.DataOffset + info.DataLength
	if end > int64(len(data)) {
		return nil, fmt.Errorf("%s: data chunk runs past end of file", path)
	}
	return data[info.DataOffset:end], nil
}

func (b *Builder) writeCueSheet(sheet *track.Sheet) error {
	f, err := os.Create(b.Config.CueSheet)
	if err != nil {
		return &buildcfg.SinkIOError{Path: b.Config.CueSheet, Err: err}
	}
	defer f.Close()
	if _, err := sheet.WriteTo(f); err != nil {
		return &buildcfg.SinkIOError{Path: b.Config.CueSheet, Err: err}
	}
	return nil
}

// finalizeImageSize pads or truncates the image file to exactly
// plan.TotalSectors raw sectors, matching the teacher's
// finalizeImageSize.
func (b *Builder) finalizeImageSize(f *os.File, plan *layout.Plan) error {
	expected := int64(plan.TotalSectors) * int64(sector.Size)
	current, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if current < expected {
		pad := make([]byte, sector.Size)
		for current < expected {
			n := expected - current
			if n > int64(len(pad)) {
				n = int64(len(pad))
			}
			written, err := f.Write(pad[:n])
			if err != nil {
				return err
			}
			current += int64(written)
		}
		return nil
	}
	if current > expected {
		b.Rep.Warnf("image grew to %d bytes, expected %d; truncating", current, expected)
		return f.Truncate(expected)
	}
	return nil
}
