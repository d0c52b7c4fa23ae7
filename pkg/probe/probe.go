// Package probe inspects MP4 files produced by the muxer.
package probe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/hevc"
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"

	"github.com/user/framemux/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when a file carries no video track.
	ErrNoVideoTrack = errors.New("probe: no video track found")

	// ErrNotFragmented is returned by Samples for progressive files.
	ErrNotFragmented = errors.New("probe: sample extraction requires a fragmented file")

	// ErrTrackNotFound is returned when the requested track id does not exist.
	ErrTrackNotFound = errors.New("probe: track not found")
)

// Track describes one video track.
type Track struct {
	ID        uint32
	Format    string // sample entry type, e.g. avc1, hvc1, jpeg
	Codec     string // MIME codec, empty when unknown
	Width     int
	Height    int
	Timescale uint32
	Samples   int
	Duration  time.Duration

	// Coded dimensions from the parameter sets, zero when not available.
	CodedWidth  int
	CodedHeight int
}

// Info describes an MP4 file.
type Info struct {
	Size       int64
	Fragmented bool
	Tracks     []Track
}

// Duration returns the longest track duration.
func (i *Info) Duration() time.Duration {
	var d time.Duration
	for _, t := range i.Tracks {
		if t.Duration > d {
			d = t.Duration
		}
	}
	return d
}

// Codec returns the codec of the first track.
func (i *Info) Codec() string {
	if len(i.Tracks) == 0 {
		return ""
	}
	return i.Tracks[0].Codec
}

// File probes the MP4 file at path.
func File(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Bytes(data)
}

// Bytes probes MP4 data held in memory.
func Bytes(data []byte) (*Info, error) {
	f, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	moov := movieBox(f)
	if moov == nil {
		return nil, ErrNoVideoTrack
	}

	info := &Info{
		Size:       int64(len(data)),
		Fragmented: f.IsFragmented(),
	}

	for _, trak := range moov.Traks {
		track, ok := describeTrack(trak)
		if !ok {
			continue
		}
		if info.Fragmented {
			countFragmentSamples(f, moov, &track)
		}
		info.Tracks = append(info.Tracks, track)
	}

	if len(info.Tracks) == 0 {
		return nil, ErrNoVideoTrack
	}
	return info, nil
}

// Samples returns the sample payloads of a track in decode order.
// Only fragmented files are supported.
func Samples(r io.Reader, trackID uint32) ([][]byte, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !f.IsFragmented() {
		return nil, ErrNotFragmented
	}

	moov := movieBox(f)
	if moov == nil || findTrak(moov, trackID) == nil {
		return nil, fmt.Errorf("%w: %d", ErrTrackNotFound, trackID)
	}
	trex := findTrex(moov, trackID)

	var out [][]byte
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if !singleTrackFragment(frag, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				out = append(out, s.Data)
			}
		}
	}
	return out, nil
}

func movieBox(f *mp4.File) *mp4.MoovBox {
	if f.Moov != nil {
		return f.Moov
	}
	if f.Init != nil {
		return f.Init.Moov
	}
	return nil
}

func findTrak(moov *mp4.MoovBox, trackID uint32) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Tkhd != nil && trak.Tkhd.TrackID == trackID {
			return trak
		}
	}
	return nil
}

func findTrex(moov *mp4.MoovBox, trackID uint32) *mp4.TrexBox {
	if moov.Mvex == nil {
		return nil
	}
	for _, t := range moov.Mvex.Trexs {
		if t.TrackID == trackID {
			return t
		}
	}
	return nil
}

func singleTrackFragment(frag *mp4.Fragment, trackID uint32) bool {
	if frag.Moof == nil || len(frag.Moof.Trafs) != 1 {
		return false
	}
	return frag.Moof.Trafs[0].Tfhd.TrackID == trackID
}

func describeTrack(trak *mp4.TrakBox) (Track, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return Track{}, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return Track{}, false
	}

	t := Track{ID: trak.Tkhd.TrackID}
	if trak.Mdia.Mdhd != nil {
		t.Timescale = trak.Mdia.Mdhd.Timescale
		if t.Timescale > 0 {
			t.Duration = ticksToDuration(trak.Mdia.Mdhd.Duration, t.Timescale)
		}
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		t.Samples = int(stbl.Stsz.SampleNumber)
	}

	for _, child := range stbl.Stsd.Children {
		switch entry := child.(type) {
		case *mp4.VisualSampleEntryBox:
			t.Format = entry.Type()
			t.Codec = codecForFormat(t.Format)
			t.Width = int(entry.Width)
			t.Height = int(entry.Height)
			t.CodedWidth, t.CodedHeight = codedSize(entry)
		case *mp4.UnknownBox:
			// mp4ff leaves sample entries it has no decoder for undecoded.
			codec := codecForFormat(entry.Type())
			if codec == "" {
				continue
			}
			w, h, ok := visualEntrySize(entry.Payload())
			if !ok {
				continue
			}
			t.Format = entry.Type()
			t.Codec = codec
			t.Width, t.Height = w, h
		default:
			continue
		}
		break
	}

	return t, true
}

// visualEntrySize reads width and height from a raw VisualSampleEntry body.
// They follow 24 bytes of reserved fields, data reference index and pre-defined fields.
func visualEntrySize(payload []byte) (int, int, bool) {
	if len(payload) < 28 {
		return 0, 0, false
	}
	return int(binary.BigEndian.Uint16(payload[24:26])), int(binary.BigEndian.Uint16(payload[26:28])), true
}

func codecForFormat(format string) string {
	switch format {
	case "avc1", "avc3":
		return ports.CodecAVC
	case "hvc1", "hev1":
		return ports.CodecHEVC
	case "jpeg", "mjpa", "mjpg":
		return ports.CodecMJPEG
	default:
		return ""
	}
}

// codedSize parses the first SPS of the decoder configuration.
func codedSize(vse *mp4.VisualSampleEntryBox) (int, int) {
	switch {
	case vse.AvcC != nil && len(vse.AvcC.SPSnalus) > 0:
		var sps h264.SPS
		if err := sps.Unmarshal(vse.AvcC.SPSnalus[0]); err != nil {
			return 0, 0
		}
		return sps.Width(), sps.Height()
	case vse.HvcC != nil:
		nalus := vse.HvcC.GetNalusForType(hevc.NALU_SPS)
		if len(nalus) == 0 {
			return 0, 0
		}
		var sps h265.SPS
		if err := sps.Unmarshal(nalus[0]); err != nil {
			return 0, 0
		}
		return sps.Width(), sps.Height()
	}
	return 0, 0
}

// countFragmentSamples adds up samples and durations stored in movie fragments.
func countFragmentSamples(f *mp4.File, moov *mp4.MoovBox, t *Track) {
	trex := findTrex(moov, t.ID)
	var ticks uint64
	samples := 0

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if !singleTrackFragment(frag, t.ID) {
				continue
			}
			full, err := frag.GetFullSamples(trex)
			if err != nil {
				continue
			}
			samples += len(full)
			for _, s := range full {
				ticks += uint64(s.Dur)
			}
		}
	}

	if samples > 0 {
		t.Samples = samples
	}
	if ticks > 0 && t.Timescale > 0 {
		t.Duration = ticksToDuration(ticks, t.Timescale)
	}
}

func ticksToDuration(ticks uint64, timescale uint32) time.Duration {
	return time.Duration(float64(ticks) / float64(timescale) * float64(time.Second))
}
