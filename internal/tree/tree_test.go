package tree

import "testing"

func TestAddFileRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	tr := New()
	if _, err := tr.AddFile(0, KindFile, "MAIN.EXE;1", "/src/main.exe", 2048); err != nil {
		t.Fatalf("first AddFile failed: %v", err)
	}
	if _, err := tr.AddFile(0, KindFile, "main.exe;1", "/src/other.exe", 2048); err == nil {
		t.Error("AddFile should reject a case-insensitive duplicate name")
	}
}

func TestAddFileRejectsOversizedIdentifier(t *testing.T) {
	tr := New()
	if _, err := tr.AddFile(0, KindFile, "WAYTOOLONGNAME.EXE;1", "/src/x", 2048); err == nil {
		t.Error("AddFile should reject an identifier longer than 8.3 + version")
	}
}

func TestAddFileEnforcesAlignment(t *testing.T) {
	tr := New()
	if _, err := tr.AddFile(0, KindStreamDataOnly, "MOVIE.STR;1", "/src/m", 2049); err == nil {
		t.Error("AddFile should reject a StreamDataOnly size not a multiple of 2048")
	}
	if _, err := tr.AddFile(0, KindXA, "AUDIO.XA;1", "/src/a", 2337); err == nil {
		t.Error("AddFile should reject an XA size not a multiple of 2336")
	}
}

func TestAddFileRejectsNonFileKind(t *testing.T) {
	tr := New()
	if _, err := tr.AddFile(0, KindDir, "SUBDIR", "", 0); err == nil {
		t.Error("AddFile should reject KindDir")
	}
	if _, err := tr.AddFile(0, KindDummy, "X", "", 0); err == nil {
		t.Error("AddFile should reject KindDummy")
	}
}

func TestAddFileRejectsEntryAfterDA(t *testing.T) {
	tr := New()
	if _, err := tr.AddFile(0, KindDA, "TRACK02", "/src/track02.wav", 4*2352); err != nil {
		t.Fatalf("adding DA track failed: %v", err)
	}
	if _, err := tr.AddFile(0, KindFile, "LATE.DAT;1", "/src/late", 2048); err == nil {
		t.Error("AddFile should reject a non-DA entry placed after a DA track in the same directory")
	}
	if _, err := tr.AddDir(0, "LATEDIR"); err == nil {
		t.Error("AddDir should reject a directory placed after a DA track in the same directory")
	}
	// Another DA track is still fine.
	if _, err := tr.AddFile(0, KindDA, "TRACK03", "/src/track03.wav", 4*2352); err != nil {
		t.Errorf("adding a second DA track should succeed, got: %v", err)
	}
}

func TestSortChildrenOrdersNameThenDAThenDummy(t *testing.T) {
	tr := New()
	b, _ := tr.AddFile(0, KindFile, "BBB.DAT;1", "/src/b", 2048)
	a, _ := tr.AddFile(0, KindFile, "AAA.DAT;1", "/src/a", 2048)
	da, _ := tr.AddFile(0, KindDA, "TRACK02", "/src/t2.wav", 2352)
	dummy := tr.AddDummy(0, 4)

	tr.SortChildren(0)
	got := tr.Entries[0].Children
	want := []int{a, b, da, dummy}
	if len(got) != len(want) {
		t.Fatalf("SortChildren produced %d children, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child[%d] = index %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIsDA(t *testing.T) {
	tr := New()
	da, _ := tr.AddFile(0, KindDA, "TRACK02", "/src/t2.wav", 2352)
	file, _ := tr.AddFile(0, KindFile, "MAIN.EXE;1", "/src/main.exe", 2048)
	if !tr.IsDA(da) {
		t.Error("IsDA() should be true for a DA entry")
	}
	if tr.IsDA(file) {
		t.Error("IsDA() should be false for a non-DA entry")
	}
}
