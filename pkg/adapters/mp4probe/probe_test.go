package mp4probe

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmented writes a minimal fragmented MP4 with one video track.
func buildFragmented(t *testing.T, sampleEntry string, width, height uint16, samples int, fps uint32) []byte {
	t.Helper()
	return buildFragmentedSized(t, sampleEntry, width, height, samples, fps, 5)
}

// buildFragmentedSized is buildFragmented with sampleSize bytes per sample.
func buildFragmentedSized(t *testing.T, sampleEntry string, width, height uint16, samples int, fps uint32, sampleSize int) []byte {
	t.Helper()

	timescale := fps * 1000
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox(sampleEntry, width, height, nil))
	trak.Tkhd.Width = mp4.Fixed32(uint32(width) << 16)
	trak.Tkhd.Height = mp4.Fixed32(uint32(height) << 16)

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	dur := timescale / fps
	for i := 0; i < samples; i++ {
		data := make([]byte, sampleSize)
		copy(data, []byte{0, 0, 0, 1, byte(i)})
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: uint32(len(data)), Dur: dur},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbeReader_Fragmented(t *testing.T) {
	data := buildFragmented(t, "avc1", 640, 360, 90, 30)

	info, err := ProbeReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}

	if math.Abs(info.DurationSec-3.0) > 1e-6 {
		t.Errorf("expected 3s, got %v", info.DurationSec)
	}
	if info.Width != 640 || info.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", info.Width, info.Height)
	}
	if info.Codec != CodecH264 {
		t.Errorf("expected h264, got %q", info.Codec)
	}
}

// countingReader counts the bytes read through it.
type countingReader struct {
	io.ReadSeeker
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadSeeker.Read(p)
	r.n += int64(n)
	return n, err
}

func TestMetadata_SkipsMediaData(t *testing.T) {
	const sampleSize = 2 << 20
	data := buildFragmentedSized(t, "avc1", 640, 360, 3, 30, sampleSize)

	r := &countingReader{ReadSeeker: bytes.NewReader(data)}
	info, err := ProbeReader(r)
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}

	if math.Abs(info.DurationSec-0.1) > 1e-6 {
		t.Errorf("expected 0.1s, got %v", info.DurationSec)
	}
	if r.n >= 1<<20 {
		t.Errorf("expected media data to be skipped, read %d of %d bytes", r.n, len(data))
	}
}

func TestProbeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildFragmented(t, "avc1", 320, 240, 15, 30), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if math.Abs(info.DurationSec-0.5) > 1e-6 {
		t.Errorf("expected 0.5s, got %v", info.DurationSec)
	}
}

func TestProbeFile_Missing(t *testing.T) {
	if _, err := ProbeFile(filepath.Join(t.TempDir(), "nope.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProbeReader_NotMP4(t *testing.T) {
	if _, err := ProbeReader(bytes.NewReader([]byte("definitely not an mp4 file"))); err == nil {
		t.Error("expected error for non-MP4 data")
	}
}

func TestCodecName(t *testing.T) {
	tests := map[string]string{
		"avc1": CodecH264,
		"avc3": CodecH264,
		"hvc1": CodecHEVC,
		"hev1": CodecHEVC,
		"av01": CodecAV1,
		"vp09": CodecVP9,
		"mp4v": "mp4v",
	}
	for in, want := range tests {
		if got := codecName(in); got != want {
			t.Errorf("codecName(%q) = %q, want %q", in, got, want)
		}
	}
}
