package pathtable

import (
	"encoding/binary"
	"testing"

	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

func buildSampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	sub, err := tr.AddDir(0, "DATA")
	if err != nil {
		t.Fatalf("AddDir failed: %v", err)
	}
	tr.Entries[0].Sector = 20
	tr.Entries[sub].Sector = 21
	tr.Entries[0].PathTable = 1
	tr.Entries[sub].PathTable = 2
	return tr
}

func TestTotalBytesMatchesEncodedLength(t *testing.T) {
	tr := buildSampleTree(t)
	total := TotalBytes(tr)
	encoded := Encode(tr, false)
	if total != len(encoded) {
		t.Errorf("TotalBytes() = %d, Encode() produced %d bytes", total, len(encoded))
	}
}

func TestEncodeRootIsFirstWithNulIdentifier(t *testing.T) {
	tr := buildSampleTree(t)
	encoded := Encode(tr, false)
	if encoded[0] != 1 {
		t.Fatalf("first record id_len = %d, want 1 (root)", encoded[0])
	}
	if encoded[8] != 0x00 {
		t.Errorf("root identifier byte = 0x%02X, want 0x00", encoded[8])
	}
	rootLBA := binary.LittleEndian.Uint32(encoded[2:6])
	if rootLBA != 20 {
		t.Errorf("root LBA = %d, want 20", rootLBA)
	}
}

func TestEncodeEndiannessSelection(t *testing.T) {
	tr := buildSampleTree(t)
	le := Encode(tr, false)
	be := Encode(tr, true)
	leLBA := binary.LittleEndian.Uint32(le[2:6])
	beLBA := binary.BigEndian.Uint32(be[2:6])
	if leLBA != beLBA {
		t.Errorf("LE-decoded LBA %d should equal BE-decoded LBA %d", leLBA, beLBA)
	}
}

func TestEncodeChildRecordAfterRoot(t *testing.T) {
	tr := buildSampleTree(t)
	encoded := Encode(tr, false)

	rootIDLen := int(encoded[0])
	rootLen := RecordFixedSize + rootIDLen
	if rootIDLen%2 != 0 {
		rootLen++
	}

	idLen := int(encoded[rootLen])
	idBytes := encoded[rootLen+8 : rootLen+8+idLen]
	if string(idBytes) != "DATA" {
		t.Errorf("child identifier = %q, want DATA", string(idBytes))
	}
	parentNum := binary.LittleEndian.Uint16(encoded[rootLen+6 : rootLen+8])
	if parentNum != 1 {
		t.Errorf("child parent path-table number = %d, want 1 (root)", parentNum)
	}
}
