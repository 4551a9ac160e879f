package flac

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// blockHeader builds a 4-byte metadata-block header.
func blockHeader(btype int, length int, isLast bool) []byte {
	b0 := byte(btype & 0x7F)
	if isLast {
		b0 |= 0x80
	}
	return []byte{b0, byte(length >> 16), byte(length >> 8), byte(length)}
}

// streamInfoPayload builds a 34-byte STREAMINFO payload with the packed
// region at bytes 10..18 filled in.
func streamInfoPayload(si StreamInfo) []byte {
	payload := make([]byte, 34)
	binary.BigEndian.PutUint16(payload[0:2], 4096) // min block size
	binary.BigEndian.PutUint16(payload[2:4], 4096) // max block size
	copy(payload[10:18], PackStreamInfo(si))
	return payload
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestProbeRejectsNonFLAC(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"riff header", []byte("RIFF")},
		{"empty file", nil},
		{"short file", []byte("fL")},
		{"mp3 id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "input.bin", tt.data)
			p, err := ProbeFile(path)
			if err != nil {
				t.Fatalf("ProbeFile failed: %v", err)
			}
			if p.IsNativeFLAC {
				t.Error("expected IsNativeFLAC=false")
			}
			if p.Reason == "" {
				t.Error("expected a rejection reason")
			}
			if len(p.Blocks) != 0 || p.TotalMeta != 0 || p.StreamInfo != nil {
				t.Error("rejected probe must carry no block data")
			}
		})
	}
}

func TestProbeMinimalFile(t *testing.T) {
	si := StreamInfo{SampleRate: 44100, Channels: 2, BitsPerSample: 16, TotalSamples: 88200}
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(blockHeader(TypeStreamInfo, 34, false))
	buf.Write(streamInfoPayload(si))
	buf.Write(blockHeader(TypePadding, 16, true))
	buf.Write(make([]byte, 16))

	path := writeFile(t, "minimal.flac", buf.Bytes())
	p, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}

	if !p.IsNativeFLAC {
		t.Fatal("expected native FLAC")
	}
	if len(p.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(p.Blocks))
	}
	if !p.LastMarked {
		t.Error("expected LastMarked=true")
	}
	if p.UnknownCount != 0 {
		t.Errorf("expected 0 unknown blocks, got %d", p.UnknownCount)
	}
	if want := int64(4 + 34 + 4 + 16); p.TotalMeta != want {
		t.Errorf("TotalMeta = %d, want %d", p.TotalMeta, want)
	}
	if p.StreamInfo == nil {
		t.Fatal("expected decoded StreamInfo")
	}
	if *p.StreamInfo != si {
		t.Errorf("StreamInfo = %+v, want %+v", *p.StreamInfo, si)
	}
	if p.Blocks[0].Offset != 4 || p.Blocks[1].Offset != 4+4+34 {
		t.Errorf("unexpected block offsets: %d, %d", p.Blocks[0].Offset, p.Blocks[1].Offset)
	}
}

func TestProbeSingleZeroLengthPaddingBlock(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(blockHeader(TypePadding, 0, true))

	path := writeFile(t, "padonly.flac", buf.Bytes())
	p, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if !p.IsNativeFLAC || !p.LastMarked {
		t.Errorf("expected native FLAC with terminated chain, got %+v", p)
	}
	if len(p.Blocks) != 1 || p.Blocks[0].Length != 0 {
		t.Errorf("expected one zero-length block, got %+v", p.Blocks)
	}
	if p.TotalMeta != 4 {
		t.Errorf("TotalMeta = %d, want 4", p.TotalMeta)
	}
}

func TestProbeTruncatedChain(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(blockHeader(TypePadding, 64, false)) // claims 64 payload bytes
	buf.Write(make([]byte, 8))                     // file ends early

	path := writeFile(t, "truncated.flac", buf.Bytes())
	p, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if !p.IsNativeFLAC {
		t.Fatal("expected native FLAC")
	}
	if p.LastMarked {
		t.Error("truncated chain must not be marked terminated")
	}
	if len(p.Blocks) != 1 {
		t.Errorf("expected 1 block, got %d", len(p.Blocks))
	}
}

func TestProbeCountsUnknownAndPictureBlocks(t *testing.T) {
	si := StreamInfo{SampleRate: 48000, Channels: 2, BitsPerSample: 24, TotalSamples: 1}
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(blockHeader(TypeStreamInfo, 34, false))
	buf.Write(streamInfoPayload(si))
	buf.Write(blockHeader(TypePicture, 100, false))
	buf.Write(make([]byte, 100))
	buf.Write(blockHeader(99, 10, false)) // unrecognized type
	buf.Write(make([]byte, 10))
	buf.Write(blockHeader(TypePicture, 50, true))
	buf.Write(make([]byte, 50))

	path := writeFile(t, "mixed.flac", buf.Bytes())
	p, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if p.UnknownCount != 1 {
		t.Errorf("UnknownCount = %d, want 1", p.UnknownCount)
	}
	if p.PictureBytes != 150 {
		t.Errorf("PictureBytes = %d, want 150", p.PictureBytes)
	}
	if !p.LastMarked {
		t.Error("expected terminated chain")
	}
}

func TestProbeSkipsMalformedStreamInfo(t *testing.T) {
	// STREAMINFO with the wrong payload length is skipped undecoded.
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(blockHeader(TypeStreamInfo, 20, false))
	buf.Write(make([]byte, 20))
	buf.Write(blockHeader(TypePadding, 0, true))

	path := writeFile(t, "badsi.flac", buf.Bytes())
	p, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if p.StreamInfo != nil {
		t.Error("malformed STREAMINFO must stay undecoded")
	}
	if len(p.Blocks) != 2 || !p.LastMarked {
		t.Errorf("expected the chain to keep walking, got %+v", p)
	}
}

func TestStreamInfoRoundTrip(t *testing.T) {
	tests := []StreamInfo{
		{SampleRate: 44100, Channels: 2, BitsPerSample: 16, TotalSamples: 88200},
		{SampleRate: 48000, Channels: 1, BitsPerSample: 24, TotalSamples: 0},
		{SampleRate: 192000, Channels: 8, BitsPerSample: 32, TotalSamples: 1<<36 - 1},
		{SampleRate: 8000, Channels: 6, BitsPerSample: 8, TotalSamples: 1},
		{SampleRate: 1<<20 - 1, Channels: 5, BitsPerSample: 20, TotalSamples: 987654321},
	}
	for _, si := range tests {
		packed := PackStreamInfo(si)
		got := UnpackStreamInfo(packed)
		if got != si {
			t.Errorf("unpack(pack(%+v)) = %+v", si, got)
		}
		repacked := PackStreamInfo(got)
		if !bytes.Equal(packed, repacked) {
			t.Errorf("pack is not stable for %+v: % x vs % x", si, packed, repacked)
		}
	}
}

func TestTypeName(t *testing.T) {
	if TypeName(TypeStreamInfo) != "STREAMINFO" {
		t.Error("wrong name for STREAMINFO")
	}
	if TypeName(42) != "UNKNOWN" {
		t.Error("expected UNKNOWN for type 42")
	}
}
