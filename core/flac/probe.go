// Package flac walks the metadata-block chain of a native FLAC container
// without decoding any audio.
//
// FLAC metadata layout:
//   - 4 bytes ASCII magic "fLaC"
//   - a chain of blocks, each with a 4-byte header: bit 7 of byte 0 is the
//     is-last flag, bits 0-6 the block type, bytes 1-3 a 24-bit big-endian
//     payload length. Audio frames begin after the block whose is-last flag
//     is set.
package flac

import (
	"encoding/binary"
	"io"
	"os"
)

// Block types defined by the format. Anything else up to 127 is unknown.
const (
	TypeStreamInfo    = 0
	TypePadding       = 1
	TypeApplication   = 2
	TypeSeekTable     = 3
	TypeVorbisComment = 4
	TypeCueSheet      = 5
	TypePicture       = 6
)

var typeNames = map[int]string{
	TypeStreamInfo:    "STREAMINFO",
	TypePadding:       "PADDING",
	TypeApplication:   "APPLICATION",
	TypeSeekTable:     "SEEKTABLE",
	TypeVorbisComment: "VORBIS_COMMENT",
	TypeCueSheet:      "CUESHEET",
	TypePicture:       "PICTURE",
}

// TypeName returns the format name for a block type, or "UNKNOWN".
func TypeName(t int) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// streamInfoLen is the fixed payload length of a well-formed STREAMINFO
// block. Any other length is treated as malformed and skipped undecoded.
const streamInfoLen = 34

// MetaBlock is one block found while walking the chain.
type MetaBlock struct {
	Type   int
	Length int64 // payload bytes
	Offset int64 // byte offset of the block header within the file
	IsLast bool
}

// StreamInfo holds the stream parameters decoded from a STREAMINFO block.
type StreamInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	TotalSamples  uint64
}

// Probe is the result of one structural scan. It is never mutated after
// construction.
type Probe struct {
	IsNativeFLAC bool
	Reason       string // rejection reason when IsNativeFLAC is false
	Blocks       []MetaBlock
	StreamInfo   *StreamInfo // nil unless the first block is a valid 34-byte STREAMINFO
	TotalMeta    int64       // every block's 4-byte header plus payload
	PictureBytes int64       // payload bytes across all PICTURE blocks
	UnknownCount int
	LastMarked   bool // chain terminated via the is-last flag, not EOF
}

// ProbeFile scans the metadata-block chain of the file at path.
//
// If the first four bytes are not the fLaC magic the probe rejects the file
// and reads nothing further. A chain that hits EOF before a block marks
// itself last is returned with LastMarked false; truncation is an anomaly
// signal, not a parse error. The returned error covers I/O failures only.
func ProbeFile(path string) (*Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return probe(f), nil
}

func probe(r io.ReadSeeker) *Probe {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != "fLaC" {
		return &Probe{Reason: "not native FLAC (missing fLaC magic)"}
	}

	p := &Probe{IsNativeFLAC: true, Reason: "OK"}
	hdr := make([]byte, 4)
	for {
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			break
		}
		if _, err := io.ReadFull(r, hdr); err != nil {
			// Short header read: the chain is truncated.
			break
		}
		isLast := hdr[0]&0x80 != 0
		btype := int(hdr[0] & 0x7F)
		length := int64(hdr[1])<<16 | int64(hdr[2])<<8 | int64(hdr[3])

		p.Blocks = append(p.Blocks, MetaBlock{Type: btype, Length: length, Offset: offset, IsLast: isLast})
		p.TotalMeta += length + 4
		if btype == TypePicture {
			p.PictureBytes += length
		}
		if _, known := typeNames[btype]; !known {
			p.UnknownCount++
		}

		if btype == TypeStreamInfo && length == streamInfoLen {
			payload := make([]byte, streamInfoLen)
			if _, err := io.ReadFull(r, payload); err != nil {
				break
			}
			si := UnpackStreamInfo(payload[10:18])
			p.StreamInfo = &si
		} else {
			// Bounded seek over the payload; seeking past EOF is legal and
			// surfaces as a short read on the next header.
			if _, err := r.Seek(length, io.SeekCurrent); err != nil {
				break
			}
		}

		if isLast {
			p.LastMarked = true
			break
		}
	}
	return p
}

// UnpackStreamInfo decodes the packed big-endian region at bytes 10..18 of
// a STREAMINFO payload: sample rate (20 bits), channel count minus one
// (3 bits), bits per sample minus one (5 bits), total samples (36 bits).
func UnpackStreamInfo(b []byte) StreamInfo {
	x := binary.BigEndian.Uint64(b)
	return StreamInfo{
		SampleRate:    int(x >> 44 & 0xFFFFF),
		Channels:      int(x>>41&0x7) + 1,
		BitsPerSample: int(x>>36&0x1F) + 1,
		TotalSamples:  x & 0xFFFFFFFFF,
	}
}

// PackStreamInfo is the inverse of UnpackStreamInfo, producing the 8-byte
// packed region.
func PackStreamInfo(si StreamInfo) []byte {
	x := (uint64(si.SampleRate) & 0xFFFFF) << 44
	x |= (uint64(si.Channels-1) & 0x7) << 41
	x |= (uint64(si.BitsPerSample-1) & 0x1F) << 36
	x |= si.TotalSamples & 0xFFFFFFFFF
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, x)
	return b
}
