// Package pathtable encodes the ISO9660 L-Type (little-endian) and M-Type
// (big-endian) path tables from the directory LBAs and path-table numbers
// that the layout pass has already stored in the tree.
package pathtable

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

// RecordFixedSize is the size of a Path Table Record excluding its
// identifier and padding byte (ECMA-119 Section 9.4).
const RecordFixedSize = 8

// dirInfo is the subset of a directory entry the path table needs: its
// tree index, 1-based path table number, parent's path table number, and
// assigned LBA, captured once layout has run.
type dirInfo struct {
	index     int
	ptNum     uint16
	parentPT  uint16
	sector    uint32
	isRoot    bool
	identStr  string
}

func collect(t *tree.Tree) []dirInfo {
	var dirs []dirInfo
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Kind != tree.KindDir {
			continue
		}
		parentPT := t.Entries[e.ParentIndex].PathTable
		dirs = append(dirs, dirInfo{
			index:    i,
			ptNum:    e.PathTable,
			parentPT: parentPT,
			sector:   e.Sector,
			isRoot:   i == 0,
			identStr: e.Name,
		})
	}
	return dirs
}

func identifierBytes(d dirInfo) []byte {
	if d.isRoot {
		return []byte{0x00}
	}
	return []byte(d.identStr)
}

func recordLen(d dirInfo) int {
	idLen := len(identifierBytes(d))
	total := RecordFixedSize + idLen
	if idLen%2 != 0 {
		total++
	}
	return total
}

// TotalBytes returns the unpadded byte length of the path table, which
// the layout planner needs before it can assign the path table's own
// sector count.
func TotalBytes(t *tree.Tree) int {
	total := 0
	for _, d := range collect(t) {
		total += recordLen(d)
	}
	return total
}

// Encode builds the path table bytes. bigEndian selects the M-Type
// encoding; directories are ordered by path-table number, which
// layout.AssignPathTableNumbers assigns breadth-first, matching ECMA-119 9.4.3's
// parent-before-child requirement.
func Encode(t *tree.Tree, bigEndian bool) []byte {
	dirs := collect(t)
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].ptNum < dirs[j].ptNum
	})

	buf := new(bytes.Buffer)
	for _, d := range dirs {
		ident := identifierBytes(d)
		total := recordLen(d)
		rec := make([]byte, total)
		rec[0] = byte(len(ident))
		rec[1] = 0 // extended attribute record length

		parentNum := d.parentPT
		if d.isRoot {
			parentNum = 1
		}
		if bigEndian {
			binary.BigEndian.PutUint32(rec[2:6], d.sector)
			binary.BigEndian.PutUint16(rec[6:8], parentNum)
		} else {
			binary.LittleEndian.PutUint32(rec[2:6], d.sector)
			binary.LittleEndian.PutUint16(rec[6:8], parentNum)
		}
		copy(rec[8:], ident)
		buf.Write(rec)
	}
	return buf.Bytes()
}
