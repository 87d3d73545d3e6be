// Package audio plays signed 16-bit little-endian PCM and reports how much of
// each clip has been heard, so engines can time word progress against it.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Format describes signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is mono at 22050 Hz, what piper voices produce.
var DefaultFormat = Format{SampleRate: 22050, Channels: 1}

// BytesPerFrame returns the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return 2 * f.Channels
}

// Duration returns how long n bytes of PCM play for.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Bytes returns the frame-aligned byte count for d.
func (f Format) Bytes(d time.Duration) int {
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return frames * f.BytesPerFrame()
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Validate checks that data is non-empty and frame aligned.
func (f Format) Validate(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty PCM data")
	}
	if len(data)%f.BytesPerFrame() != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), f.BytesPerFrame())
	}
	return nil
}

// Silence returns d of silent PCM.
func Silence(f Format, d time.Duration) []byte {
	return make([]byte, f.Bytes(d))
}

func samples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

func encode(s []int16) []byte {
	out := make([]byte, 2*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

// Convert resamples and remixes data from one format to another. Channels are
// averaged down to mono or duplicated up from mono.
func Convert(data []byte, from, to Format) ([]byte, error) {
	if from == to {
		return data, nil
	}
	if err := from.Validate(data); err != nil {
		return nil, err
	}

	in := samples(data)
	mono := in
	if from.Channels > 1 {
		mono = make([]int16, len(in)/from.Channels)
		for i := range mono {
			sum := 0
			for ch := 0; ch < from.Channels; ch++ {
				sum += int(in[i*from.Channels+ch])
			}
			mono[i] = int16(sum / from.Channels)
		}
	}

	mono = resample(mono, from.SampleRate, to.SampleRate)

	if to.Channels <= 1 {
		return encode(mono), nil
	}
	out := make([]int16, len(mono)*to.Channels)
	for i, v := range mono {
		for ch := 0; ch < to.Channels; ch++ {
			out[i*to.Channels+ch] = v
		}
	}
	return encode(out), nil
}

// resample performs linear interpolation between neighbouring samples.
func resample(in []int16, from, to int) []int16 {
	if from == to || len(in) == 0 {
		return in
	}

	ratio := float64(to) / float64(from)
	out := make([]int16, int(float64(len(in))*ratio))
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
	}
	return out
}
