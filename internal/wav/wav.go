// Package wav extracts the PCM payload length and offset from a RIFF/WAVE
// file so it can be packed as a CD-DA track, the same minimal scan the
// original mastering tool's GetWavSize/PackWaveFile hand-roll.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/charlesthegreat77/psxdisc/internal/progress"
)

// WantSampleRate, WantBits and WantChannels describe the only PCM format a
// CD-DA track can actually hold: 44.1kHz 16-bit stereo.
const (
	WantSampleRate = 44100
	WantBits       = 16
	WantChannels   = 2
)

// Info describes the payload located inside a WAV container, or a raw file
// treated as already being 44.1kHz/16-bit/stereo PCM.
type Info struct {
	DataOffset int64
	DataLength int64
}

type riffHeader struct {
	ID     [4]byte
	Size   uint32
	Format [4]byte
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Inspect scans path for a RIFF/WAVE "fmt "/"data" pair. Files that don't
// begin with a RIFF/WAVE header are treated as already-raw PCM, matching
// GetWavSize's fallback for files that "must be a raw" stream. A reporter
// receives a non-fatal warning when the format doesn't match 44.1kHz
// 16-bit stereo; the file is still used.
func Inspect(path string, rep progress.Reporter) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	var hdr riffHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return rawInfo(f)
		}
		return Info{}, err
	}
	if string(hdr.ID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE" {
		return rawInfo(f)
	}

	var (
		gotFmt  bool
		dataOff int64
		dataLen int64
	)
	for {
		var chunkID [4]byte
		var chunkSize uint32
		if err := binary.Read(f, binary.LittleEndian, &chunkID); err != nil {
			break
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			break
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fc fmtChunk
			if err := binary.Read(f, binary.LittleEndian, &fc); err != nil {
				return Info{}, fmt.Errorf("reading fmt chunk of %q: %w", path, err)
			}
			gotFmt = true
			if fc.SampleRate != WantSampleRate || fc.BitsPerSample != WantBits || fc.NumChannels != WantChannels {
				if rep != nil {
					rep.Warnf("%s: %dHz %d-bit %dch PCM, expected %dHz %d-bit %dch for CD-DA",
						path, fc.SampleRate, fc.BitsPerSample, fc.NumChannels,
						WantSampleRate, WantBits, WantChannels)
				}
			}
			if skip := int64(chunkSize) - 16; skip > 0 {
				if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
					return Info{}, err
				}
			}
		case "data":
			off, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				return Info{}, err
			}
			dataOff = off
			dataLen = int64(chunkSize)
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		}
		if chunkSize%2 != 0 {
			f.Seek(1, io.SeekCurrent)
		}
		if gotFmt && dataLen != 0 {
			break
		}
	}

	if dataLen == 0 {
		return Info{}, fmt.Errorf("%s: no data chunk found", path)
	}
	return Info{DataOffset: dataOff, DataLength: dataLen}, nil
}

func rawInfo(f *os.File) (Info, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return Info{}, err
	}
	return Info{DataOffset: 0, DataLength: size}, nil
}
