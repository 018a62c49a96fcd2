package layout

import (
	"testing"

	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

func TestRunEmptyRoot(t *testing.T) {
	tr := tree.New()
	plan, err := Run(tr, true)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if tr.Entries[0].Sector < 18 {
		t.Errorf("root directory sector %d should be at or after the path tables (LBA 18)", tr.Entries[0].Sector)
	}
	if plan.TotalSectors <= tr.Entries[0].Sector {
		t.Errorf("TotalSectors %d should exceed the root directory's own sector %d", plan.TotalSectors, tr.Entries[0].Sector)
	}
}

func TestRunTwoFilesSortedByName(t *testing.T) {
	tr := tree.New()
	b, _ := tr.AddFile(0, tree.KindFile, "BBB.DAT;1", "", 2048)
	a, _ := tr.AddFile(0, tree.KindFile, "AAA.DAT;1", "", 2048)
	tr.SortAll()

	if _, err := Run(tr, true); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if tr.Entries[a].Sector >= tr.Entries[b].Sector {
		t.Errorf("AAA.DAT (sector %d) should be placed before BBB.DAT (sector %d)", tr.Entries[a].Sector, tr.Entries[b].Sector)
	}
}

func TestRunNestedDirectory(t *testing.T) {
	tr := tree.New()
	sub, _ := tr.AddDir(0, "DATA")
	file, _ := tr.AddFile(sub, tree.KindFile, "MAIN.EXE;1", "", 4096)
	tr.SortAll()

	if _, err := Run(tr, true); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if tr.Entries[sub].Sector >= tr.Entries[file].Sector {
		t.Errorf("subdirectory extent (sector %d) should precede its child file (sector %d)", tr.Entries[sub].Sector, tr.Entries[file].Sector)
	}
}

func TestRunMixedDATracksPregapAndLeadIn(t *testing.T) {
	tr := tree.New()
	first, _ := tr.AddFile(0, tree.KindDA, "TRACK02", "", 2352*4)
	second, _ := tr.AddFile(0, tree.KindDA, "TRACK03", "", 2352*4)
	tr.SortAll()

	plan, err := Run(tr, true)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	firstLBA, ok := plan.DATrackLBAs[first]
	if !ok {
		t.Fatalf("plan.DATrackLBAs missing the first DA entry")
	}
	secondLBA, ok := plan.DATrackLBAs[second]
	if !ok {
		t.Fatalf("plan.DATrackLBAs missing the second DA entry")
	}

	// First DA: no physical lead-in, so the second track starts exactly
	// 4 sectors (the payload) after the first's bookkeeping LBA.
	if secondLBA != firstLBA+4 {
		t.Errorf("second DA LBA = %d, want firstLBA+4 = %d (no lead-in for the first track)", secondLBA, firstLBA+4)
	}
	if tr.Entries[first].Sector != firstLBA || tr.Entries[second].Sector != secondLBA {
		t.Error("tree Entry.Sector must match the bookkeeping LBA recorded in DATrackLBAs")
	}
}

func TestRunRejectsDuplicateNames(t *testing.T) {
	tr := tree.New()
	if _, err := tr.AddFile(0, tree.KindFile, "MAIN.EXE;1", "", 2048); err != nil {
		t.Fatalf("first AddFile failed: %v", err)
	}
	if _, err := tr.AddFile(0, tree.KindFile, "main.exe;1", "", 2048); err == nil {
		t.Fatal("AddFile should have rejected the duplicate before Run is ever called")
	}
}

func TestRunRejectsEntryAfterDA(t *testing.T) {
	tr := tree.New()
	if _, err := tr.AddFile(0, tree.KindDA, "TRACK02", "", 2352*4); err != nil {
		t.Fatalf("adding DA track failed: %v", err)
	}
	if _, err := tr.AddFile(0, tree.KindFile, "LATE.DAT;1", "", 2048); err == nil {
		t.Fatal("AddFile should reject placing a file after a DA track before Run is ever called")
	}
}

func TestSectorsFor2048RoundsUp(t *testing.T) {
	cases := map[uint32]uint32{
		0:    0,
		1:    1,
		2048: 1,
		2049: 2,
	}
	for length, want := range cases {
		if got := sectorsFor2048(length); got != want {
			t.Errorf("sectorsFor2048(%d) = %d, want %d", length, got, want)
		}
	}
}
