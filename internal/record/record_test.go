package record

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

func TestSizeIsEvenAndIncludesXA(t *testing.T) {
	withoutXA := Size("MAIN.EXE;1", false)
	withXA := Size("MAIN.EXE;1", true)
	if withoutXA%2 != 0 || withXA%2 != 0 {
		t.Errorf("Size() must always be even: got %d (no XA), %d (XA)", withoutXA, withXA)
	}
	if withXA-withoutXA != XAAttributeSize {
		t.Errorf("Size() with XA should add exactly %d bytes, got delta %d", XAAttributeSize, withXA-withoutXA)
	}
}

func TestOneEncodesExtentAndLength(t *testing.T) {
	e := &tree.Entry{Kind: tree.KindFile, Sector: 42, Size: 2048}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := One(e, "MAIN.EXE;1", false, false, now)

	if got := binary.LittleEndian.Uint32(rec[2:6]); got != 42 {
		t.Errorf("LE extent LBA = %d, want 42", got)
	}
	if got := binary.BigEndian.Uint32(rec[6:10]); got != 42 {
		t.Errorf("BE extent LBA = %d, want 42", got)
	}
	if got := binary.LittleEndian.Uint32(rec[10:14]); got != 2048 {
		t.Errorf("LE data length = %d, want 2048", got)
	}
	if rec[25]&0x02 != 0 {
		t.Error("plain file record should not have the directory flag set")
	}
}

func TestOneSetsDirectoryFlag(t *testing.T) {
	e := &tree.Entry{Kind: tree.KindDir, Sector: 20, Size: 2048}
	rec := One(e, "SUBDIR", false, false, time.Now())
	if rec[25]&0x02 == 0 {
		t.Error("directory record should have the directory flag set")
	}
}

func TestOneAppliesDAShift(t *testing.T) {
	e := &tree.Entry{Kind: tree.KindDA, Sector: 1000, Size: 2352 * 4}
	rec := One(e, "TRACK02", false, false, time.Now())
	gotLBA := binary.LittleEndian.Uint32(rec[2:6])
	if gotLBA != 1150 {
		t.Errorf("DA extent LBA = %d, want entry Sector+150 = 1150", gotLBA)
	}
	gotLen := binary.LittleEndian.Uint32(rec[10:14])
	if gotLen != 4*2048 {
		t.Errorf("DA data length = %d, want %d (4 sectors of 2048)", gotLen, 4*2048)
	}
}

func TestOneAppliesXADataLengthRounding(t *testing.T) {
	e := &tree.Entry{Kind: tree.KindXA, Sector: 500, Size: 2336 * 3}
	rec := One(e, "AUDIO.XA;1", false, false, time.Now())
	gotLBA := binary.LittleEndian.Uint32(rec[2:6])
	if gotLBA != 500 {
		t.Errorf("XA extent LBA = %d, want unshifted 500", gotLBA)
	}
	gotLen := binary.LittleEndian.Uint32(rec[10:14])
	if gotLen != 3*2048 {
		t.Errorf("XA data length = %d, want %d", gotLen, 3*2048)
	}
}

func TestListingOrdersDotDotDotThenChildren(t *testing.T) {
	tr := tree.New()
	b, _ := tr.AddFile(0, tree.KindFile, "BBB.DAT;1", "", 2048)
	a, _ := tr.AddFile(0, tree.KindFile, "AAA.DAT;1", "", 2048)
	tr.Entries[a].Sector = 100
	tr.Entries[b].Sector = 102
	tr.SortChildren(0)

	listing, err := Listing(tr, 0, false, time.Now())
	if err != nil {
		t.Fatalf("Listing() failed: %v", err)
	}

	off := 0
	readIdentifier := func() string {
		recLen := int(listing[off])
		idLen := int(listing[off+32])
		id := string(listing[off+33 : off+33+idLen])
		off += recLen
		return id
	}
	if got := readIdentifier(); got != "\x00" {
		t.Errorf("first record identifier = %q, want the '.' byte", got)
	}
	if got := readIdentifier(); got != "\x01" {
		t.Errorf("second record identifier = %q, want the '..' byte", got)
	}
	if got := readIdentifier(); got != "AAA.DAT;1" {
		t.Errorf("third record identifier = %q, want AAA.DAT;1 (case-sensitive sort)", got)
	}
	if got := readIdentifier(); got != "BBB.DAT;1" {
		t.Errorf("fourth record identifier = %q, want BBB.DAT;1", got)
	}
}

func TestListingRejectsOversizedRecord(t *testing.T) {
	tr := tree.New()
	longName := make([]byte, 2100)
	for i := range longName {
		longName[i] = 'A'
	}
	// AddFile validates 8.3 naming, so fake a too-long name directly.
	tr.Entries[0].Children = append(tr.Entries[0].Children, len(tr.Entries))
	tr.Entries = append(tr.Entries, tree.Entry{Kind: tree.KindFile, Name: string(longName), ParentIndex: 0})

	if _, err := Listing(tr, 0, false, time.Now()); err == nil {
		t.Error("Listing() should reject a record that cannot fit in one logical block")
	}
}
