// Package mp4probe reads video metadata from MP4 containers without decoding.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/accidentscan/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the container has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track")

	// ErrUnknownDuration is returned when no box carries a usable duration.
	ErrUnknownDuration = errors.New("mp4probe: unknown duration")
)

// Codec names reported in ports.VideoInfo.
const (
	CodecH264 = "h264"
	CodecHEVC = "hevc"
	CodecAV1  = "av1"
	CodecVP9  = "vp9"
)

// ProbeFile reads duration, dimensions and codec from an MP4 file.
func ProbeFile(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader reads duration, dimensions and codec from an MP4 stream.
// Media data is skipped, not read.
func ProbeReader(reader io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(reader, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		return probeFragmented(mp4File)
	}
	if mp4File.Moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("%w: no moov box", ErrNoVideoTrack)
	}
	return probeProgressive(mp4File.Moov)
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// describeTrack fills dimensions and codec from the track's sample description.
func describeTrack(trak *mp4.TrakBox) ports.VideoInfo {
	var info ports.VideoInfo
	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return info
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if info.Codec == "" {
			info.Codec = codecName(child.Type())
		}
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
	}
	return info
}

func codecName(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	default:
		return boxType
	}
}

func probeProgressive(moov *mp4.MoovBox) (ports.VideoInfo, error) {
	trak := videoTrack(moov)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	info := describeTrack(trak)

	if mdhd := trak.Mdia.Mdhd; mdhd != nil && mdhd.Timescale > 0 && mdhd.Duration > 0 {
		info.DurationSec = float64(mdhd.Duration) / float64(mdhd.Timescale)
	} else if mvhd := moov.Mvhd; mvhd != nil && mvhd.Timescale > 0 && mvhd.Duration > 0 {
		info.DurationSec = float64(mvhd.Duration) / float64(mvhd.Timescale)
	}
	if info.DurationSec <= 0 {
		return info, ErrUnknownDuration
	}
	return info, nil
}

func probeFragmented(mp4File *mp4.File) (ports.VideoInfo, error) {
	moov := mp4File.Init.Moov
	trak := videoTrack(moov)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	info := describeTrack(trak)

	// mehd carries the total in movie timescale when present.
	if moov.Mvex != nil && moov.Mvex.Mehd != nil && moov.Mvhd != nil && moov.Mvhd.Timescale > 0 {
		if d := moov.Mvex.Mehd.FragmentDuration; d > 0 {
			info.DurationSec = float64(d) / float64(moov.Mvhd.Timescale)
			return info, nil
		}
	}

	var timescale uint32 = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	// Otherwise the end of the last sample bounds the duration.
	var end uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				var t uint64
				if traf.Tfdt != nil {
					t = traf.Tfdt.BaseMediaDecodeTime()
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return info, fmt.Errorf("get samples: %w", err)
				}
				for _, s := range samples {
					t += uint64(s.Dur)
				}
				if t > end {
					end = t
				}
			}
		}
	}

	if end == 0 {
		return info, ErrUnknownDuration
	}
	info.DurationSec = float64(end) / float64(timescale)
	return info, nil
}
