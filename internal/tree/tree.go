// Package tree holds the directory tree model built from a project
// description: an arena of Entry values addressed by index, mirroring the
// teacher's fileEntry slice rather than a pointer-linked tree so that
// parent/child relationships never form reference cycles.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
)

// Kind tags the different entry flavors this tool has to lay out and
// write. It mirrors the original DIRENTRY's EntryType plus the two extra
// CD-XA stream forms the specification calls out.
type Kind int

const (
	KindDir Kind = iota
	KindFile            // plain Form 1 data file, written as ordinary 2048-byte blocks
	KindStreamDataOnly  // Form 1 only, but length must be a multiple of 2048
	KindStream          // interleaved Form1/Form2 STR video, per-sector submode
	KindXA              // pure Form 2, length must be a multiple of 2336
	KindDA              // raw CD-DA audio, lives in its own track
	KindDummy           // reserved space, no directory entry
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindStreamDataOnly:
		return "stream-data"
	case KindStream:
		return "stream"
	case KindXA:
		return "xa"
	case KindDA:
		return "da"
	case KindDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// Entry is one node of the directory tree: a file, a directory, or a
// dummy placeholder that reserves sectors without appearing in any
// directory listing.
type Entry struct {
	Kind Kind

	Name       string // ISO9660 sanitized name, e.g. "MAIN.EXE;1" (unset for Dummy/root)
	SourcePath string // path on the build machine; empty for Dir/Dummy

	ParentIndex int   // index into Tree.Entries; root is its own parent
	Children    []int // indices of directory/file children, in scan order

	Level int // depth from root, root is 0

	Size      uint32 // content length in bytes (file forms); directory extent size once computed
	Sector    uint32 // assigned LBA once the layout pass runs
	DrSize    int    // marshalled directory-record byte size, including padding
	PathTable uint16 // 1-based path table directory number (directories only)

	Hidden bool
}

// Tree is the arena: Entries[0] is always the root directory.
type Tree struct {
	Entries []Entry
}

// New returns a Tree containing just the root directory.
func New() *Tree {
	return &Tree{Entries: []Entry{{
		Kind:        KindDir,
		ParentIndex: 0,
		PathTable:   1,
	}}}
}

// AddDir creates a subdirectory under parent and returns its index.
func (t *Tree) AddDir(parent int, name string) (int, error) {
	if err := validateName(name, true); err != nil {
		return 0, err
	}
	if err := t.checkDuplicate(parent, name); err != nil {
		return 0, err
	}
	if t.hasDAChild(parent) {
		return 0, &buildcfg.ValidationError{Path: name, Msg: "cannot place a directory after a CD-DA track in the same directory"}
	}
	e := Entry{
		Kind:        KindDir,
		Name:        name,
		ParentIndex: parent,
		Level:       t.Entries[parent].Level + 1,
	}
	idx := len(t.Entries)
	t.Entries = append(t.Entries, e)
	t.Entries[parent].Children = append(t.Entries[parent].Children, idx)
	return idx, nil
}

// AddFile adds a data-bearing entry (File, StreamDataOnly, Stream, XA, or
// DA) under parent. size is the source content length in bytes and is
// validated against the alignment each kind requires.
func (t *Tree) AddFile(parent int, kind Kind, name, sourcePath string, size uint32) (int, error) {
	if kind == KindDir || kind == KindDummy {
		return 0, &buildcfg.ValidationError{Path: name, Msg: fmt.Sprintf("AddFile called with non-file kind %s", kind)}
	}
	if err := validateName(name, false); err != nil {
		return 0, err
	}
	if err := t.checkDuplicate(parent, name); err != nil {
		return 0, err
	}
	if kind != KindDA && t.hasDAChild(parent) {
		return 0, &buildcfg.ValidationError{Path: name, Msg: "cannot place a non-DA entry after a CD-DA track in the same directory"}
	}
	switch kind {
	case KindStreamDataOnly:
		if size%2048 != 0 {
			return 0, &buildcfg.ValidationError{Path: name, Msg: "stream-data entries must be a multiple of 2048 bytes"}
		}
	case KindXA, KindStream:
		if size%2336 != 0 {
			return 0, &buildcfg.ValidationError{Path: name, Msg: "xa and stream entries must be a multiple of 2336 bytes"}
		}
	}
	e := Entry{
		Kind:        kind,
		Name:        name,
		SourcePath:  sourcePath,
		ParentIndex: parent,
		Level:       t.Entries[parent].Level + 1,
		Size:        size,
	}
	idx := len(t.Entries)
	t.Entries = append(t.Entries, e)
	t.Entries[parent].Children = append(t.Entries[parent].Children, idx)
	return idx, nil
}

// AddDummy reserves sectors sectors of image space as a placeholder entry
// with no directory record, per the original DirTreeClass::AddDummyEntry.
func (t *Tree) AddDummy(parent int, sectors uint32) int {
	e := Entry{
		Kind:        KindDummy,
		ParentIndex: parent,
		Level:       t.Entries[parent].Level + 1,
		Size:        sectors * 2048,
	}
	idx := len(t.Entries)
	t.Entries = append(t.Entries, e)
	t.Entries[parent].Children = append(t.Entries[parent].Children, idx)
	return idx
}

// MarkHidden flags an entry's Hidden bit for the directory record flags.
func (t *Tree) MarkHidden(idx int) {
	t.Entries[idx].Hidden = true
}

// hasDAChild reports whether parent already has a CD-DA child, used to
// reject later non-DA siblings: once a track enters CD-DA, nothing but
// another DA track may follow it in that directory's layout order.
func (t *Tree) hasDAChild(parent int) bool {
	for _, childIdx := range t.Entries[parent].Children {
		if t.Entries[childIdx].Kind == KindDA {
			return true
		}
	}
	return false
}

func (t *Tree) checkDuplicate(parent int, name string) error {
	upper := strings.ToUpper(name)
	for _, childIdx := range t.Entries[parent].Children {
		c := t.Entries[childIdx]
		if c.Kind == KindDummy {
			continue
		}
		if strings.ToUpper(c.Name) == upper {
			return &buildcfg.ValidationError{Path: name, Msg: "duplicate entry name in directory (case-insensitive)"}
		}
	}
	return nil
}

func validateName(name string, isDir bool) error {
	if name == "" {
		return &buildcfg.ValidationError{Msg: "entry name must not be empty"}
	}
	bare := name
	if !isDir {
		bare = strings.TrimSuffix(name, ";1")
	}
	if len(bare) > 12 {
		return &buildcfg.ValidationError{Path: name, Msg: "identifier exceeds 12 characters (8.3 + version)"}
	}
	return nil
}

// sortRank groups children so that regular (directory-listed, LBA-early)
// entries always precede DA tracks, which always precede Dummy
// placeholders — preserving the "nothing but DA follows a DA" layout
// invariant even after a name sort reorders the regular entries.
func sortRank(k Kind) int {
	switch k {
	case KindDA:
		return 1
	case KindDummy:
		return 2
	default:
		return 0
	}
}

// SortChildren orders a directory's children the way the disc layout
// requires: case-sensitive ascending by name within the regular entries,
// then CD-DA tracks in insertion (project) order, then Dummy
// placeholders (which have no identifier) in insertion order.
func (t *Tree) SortChildren(dirIdx int) {
	children := t.Entries[dirIdx].Children
	sort.SliceStable(children, func(i, j int) bool {
		a, b := t.Entries[children[i]], t.Entries[children[j]]
		ra, rb := sortRank(a.Kind), sortRank(b.Kind)
		if ra != rb {
			return ra < rb
		}
		if ra == 0 {
			return a.Name < b.Name
		}
		return false
	})
}

// SortAll sorts every directory's children in the tree, depth-first.
func (t *Tree) SortAll() {
	var walk func(idx int)
	walk = func(idx int) {
		t.SortChildren(idx)
		for _, c := range t.Entries[idx].Children {
			if t.Entries[c].Kind == KindDir {
				walk(c)
			}
		}
	}
	walk(0)
}

// IsDA reports whether idx names a CD-DA audio entry.
func (t *Tree) IsDA(idx int) bool { return t.Entries[idx].Kind == KindDA }
