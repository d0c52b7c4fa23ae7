package mjpegencoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// SampleDuration is the duration of every sample in track timescale units.
// The timescale is fps*1000 rounded, so one sample always lasts 1/fps seconds.
const SampleDuration = 1000

// buildMP4 writes ftyp, moov and one fragment per track. Every track carries
// the same sample sequence.
func (e *Encoder) buildMP4() ([]byte, error) {
	if len(e.samples) == 0 {
		return nil, ErrNoFrames
	}

	init := mp4.CreateEmptyInit()
	for t := 0; t < e.opts.Tracks; t++ {
		init.AddEmptyTrack(e.timescale, "video", "und")
	}

	for _, trak := range init.Moov.Traks {
		entry := mp4.CreateVisualSampleEntryBox("jpeg", uint16(e.width), uint16(e.height), nil)
		trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
		trak.Tkhd.Width = mp4.Fixed32(e.width << 16)
		trak.Tkhd.Height = mp4.Fixed32(e.height << 16)
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso5", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}

	for t, trak := range init.Moov.Traks {
		frag, err := mp4.CreateFragment(uint32(t+1), trak.Tkhd.TrackID)
		if err != nil {
			return nil, fmt.Errorf("create fragment: %w", err)
		}

		for i, data := range e.samples {
			frag.AddFullSample(mp4.FullSample{
				Sample: mp4.Sample{
					Flags: mp4.SyncSampleFlags,
					Size:  uint32(len(data)),
					Dur:   SampleDuration,
				},
				DecodeTime: uint64(i) * SampleDuration,
				Data:       data,
			})
		}

		if err := frag.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encode fragment: %w", err)
		}
	}

	return buf.Bytes(), nil
}
