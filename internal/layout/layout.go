// Package layout computes logical block addresses for every descriptor,
// path table, directory extent, file payload, and audio track in an image,
// the same two-pass "size everything, then place everything" planner the
// teacher's calculateLayout runs, generalized from plain ISO9660+Joliet to
// single-descriptor ISO9660 with CD-XA forms and CD-DA tracks.
package layout

import (
	"fmt"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/pathtable"
	"github.com/charlesthegreat77/psxdisc/internal/record"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

const sectorSize = 2048

// systemAreaSectors, volumeDescriptorSectors together occupy LBAs 0..17
// before any path table or directory content is placed.
const (
	systemAreaSectors      = 16
	volumeDescriptorSectors = 2 // PVD + terminator
)

// Plan is the result of a layout pass: every sector boundary the writer
// and descriptor/path-table/record encoders need.
type Plan struct {
	TotalSectors uint32

	PathTableSizeBytes uint32
	LPathTableLBA      uint32
	LPathTableLBA2     uint32
	MPathTableLBA      uint32
	MPathTableLBA2     uint32

	// DATrackLBAs holds, per DA entry index, the LBA of its pregap (for
	// the very first DA) or raw-silence lead-in (every later DA); the CUE
	// sheet puts INDEX 01 150 sectors after it in both cases.
	DATrackLBAs map[int]uint32
}

// ceilDivSectors rounds length up to the next multiple of size and returns the sector
// count, never the byte count; size must be a divisor of a sector-aligned
// region boundary such as 2048, 2336, or 2352.
func ceilDivSectors(length uint32, size uint32) uint32 {
	if length == 0 {
		return 0
	}
	return (length + size - 1) / size
}

// sectorsFor2048 mirrors the original's `(len+2047)/2048`; deliberately
// not the buggy truncating form that shows up in the reference tool's
// CalculateFileSystemSize path-table rounding.
func sectorsFor2048(length uint32) uint32 { return ceilDivSectors(length, 2048) }

// AssignPathTableNumbers walks the tree breadth-first and assigns each
// directory a 1-based path table number, root first.
func AssignPathTableNumbers(t *tree.Tree) {
	t.Entries[0].PathTable = 1
	next := uint16(2)
	queue := []int{0}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		for _, c := range t.Entries[idx].Children {
			if t.Entries[c].Kind == tree.KindDir {
				t.Entries[c].PathTable = next
				next++
				queue = append(queue, c)
			}
		}
	}
}

// dirEntryLen computes the byte length of a directory's own listing
// (before rounding to a whole sector), including the 2048-byte
// block-crossing pad rule the directory record encoder itself applies.
func dirEntryLen(t *tree.Tree, dirIdx int, withXA bool) int {
	dotSize := record.Size(".", withXA)
	dotDotSize := record.Size("..", withXA)
	pos := dotSize + dotDotSize

	for _, childIdx := range t.Entries[dirIdx].Children {
		child := &t.Entries[childIdx]
		if child.Kind == tree.KindDummy {
			continue
		}
		recLen := record.Size(child.Name, withXA)
		used := pos % 2048
		if used+recLen > 2048 {
			pos += 2048 - used
		}
		pos += recLen
	}
	return pos
}

// dirExtentSectors rounds a directory's listing length up to a whole
// number of 2048-byte sectors, matching the teacher's
// calculateSingleDirectoryExtentSizeBytes.
func dirExtentSectors(byteLen int) uint32 {
	return sectorsFor2048(uint32(byteLen))
}

// Run performs the two-pass layout: first it sizes every directory's
// listing and the path table, then it walks each directory's children in
// their current slice order (sorted order once SortAll has run) assigning
// LBAs to directories, files, and CD-DA tracks.
func Run(t *tree.Tree, withXA bool) (*Plan, error) {
	AssignPathTableNumbers(t)

	for i := range t.Entries {
		if t.Entries[i].Kind == tree.KindDir {
			entryLen := dirEntryLen(t, i, withXA)
			t.Entries[i].Size = dirExtentSectors(entryLen) * sectorSize
			if entryLen == 0 {
				return nil, &buildcfg.ValidationError{Msg: fmt.Sprintf("directory index %d has zero-length listing", i)}
			}
		}
	}

	ptBytes := uint32(pathtable.TotalBytes(t))
	ptSectors := sectorsFor2048(ptBytes)

	lbaL := uint32(systemAreaSectors + volumeDescriptorSectors)
	lbaL2 := lbaL + ptSectors
	lbaM := lbaL2 + ptSectors
	lbaM2 := lbaM + ptSectors
	lba := lbaM2 + ptSectors

	plan := &Plan{
		PathTableSizeBytes: ptBytes,
		LPathTableLBA:      lbaL,
		LPathTableLBA2:     lbaL2,
		MPathTableLBA:      lbaM,
		MPathTableLBA2:     lbaM2,
		DATrackLBAs:        make(map[int]uint32),
	}

	firstDASeen := false
	var walk func(dirIdx int, lba uint32) (uint32, error)
	walk = func(dirIdx int, lba uint32) (uint32, error) {
		t.Entries[dirIdx].Sector = lba
		lba += dirExtentSectors(dirEntryLen(t, dirIdx, withXA))

		for _, childIdx := range t.Entries[dirIdx].Children {
			child := &t.Entries[childIdx]
			switch child.Kind {
			case tree.KindDir:
				var err error
				lba, err = walk(childIdx, lba)
				if err != nil {
					return 0, err
				}
			case tree.KindFile, tree.KindStreamDataOnly:
				child.Sector = lba
				lba += sectorsFor2048(child.Size)
			case tree.KindXA, tree.KindStream:
				child.Sector = lba
				lba += ceilDivSectors(child.Size, 2336)
			case tree.KindDA:
				// child.Sector records the pregap/lead-in position,
				// not the payload's: the directory record encoder
				// adds the 150-sector shift itself (see
				// record.extentFields), and the track sequencer uses
				// this same value for CUE INDEX 00/PREGAP bookkeeping.
				plan.DATrackLBAs[childIdx] = lba
				child.Sector = lba
				if !firstDASeen {
					// The first DA's pregap is implicit in the CUE
					// sheet (PREGAP 00:02:00); no silence sectors are
					// written for it.
					lba += ceilDivSectors(child.Size, 2352)
					firstDASeen = true
				} else {
					// Every subsequent DA gets its own 150-sector raw
					// silence lead-in written ahead of the payload.
					lba += 150 + ceilDivSectors(child.Size, 2352)
				}
			case tree.KindDummy:
				lba += sectorsFor2048(child.Size)
			}
		}
		return lba, nil
	}

	final, err := walk(0, lba)
	if err != nil {
		return nil, err
	}
	plan.TotalSectors = final + 1 // trailing padding sector
	return plan, nil
}
