package track

import (
	"strings"
	"testing"

	"github.com/charlesthegreat77/psxdisc/internal/sector"
)

func TestNewSheetHeader(t *testing.T) {
	s := NewSheet("image.bin")
	out := s.String()
	if !strings.Contains(out, `FILE "image.bin" BINARY`) {
		t.Errorf("CUE sheet missing FILE line: %q", out)
	}
	if !strings.Contains(out, "TRACK 01 MODE2/2352") {
		t.Errorf("CUE sheet missing data track header: %q", out)
	}
	if !strings.Contains(out, "INDEX 01 00:00:00") {
		t.Errorf("CUE sheet missing data track INDEX 01 at 00:00:00: %q", out)
	}
}

func TestAddAudioTrackFirstUsesPregapNotIndex00(t *testing.T) {
	s := NewSheet("image.bin")
	s.addAudioTrack(true, 1000)
	out := s.String()
	if !strings.Contains(out, "TRACK 02 AUDIO") {
		t.Errorf("missing TRACK 02 AUDIO line: %q", out)
	}
	if !strings.Contains(out, "PREGAP 00:02:00") {
		t.Errorf("first DA track should carry a PREGAP directive: %q", out)
	}
	if strings.Contains(out, "INDEX 00") {
		t.Errorf("first DA track should not have a physical INDEX 00 lead-in: %q", out)
	}
	wantIndex01 := sector.MSFForLBA(1000 + leadInSectors).String()
	if !strings.Contains(out, "INDEX 01 "+wantIndex01) {
		t.Errorf("first DA track INDEX 01 should be at trackLBA+150 = %s: %q", wantIndex01, out)
	}
}

func TestAddAudioTrackSubsequentUsesIndex00(t *testing.T) {
	s := NewSheet("image.bin")
	s.addAudioTrack(true, 1000)
	s.addAudioTrack(false, 2000)
	out := s.String()

	if !strings.Contains(out, "TRACK 03 AUDIO") {
		t.Errorf("missing TRACK 03 AUDIO line: %q", out)
	}
	wantIndex00 := sector.MSFForLBA(2000).String()
	if !strings.Contains(out, "INDEX 00 "+wantIndex00) {
		t.Errorf("subsequent DA track should have INDEX 00 at its own trackLBA = %s: %q", wantIndex00, out)
	}
	wantIndex01 := sector.MSFForLBA(2000 + leadInSectors).String()
	if !strings.Contains(out, "INDEX 01 "+wantIndex01) {
		t.Errorf("subsequent DA track INDEX 01 should be at trackLBA+150 = %s: %q", wantIndex01, out)
	}
}
