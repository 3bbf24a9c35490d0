// ABOUTME: WAV decoder backed by go-audio/wav
// ABOUTME: Normalizes 8/16/24-bit PCM to interleaved int16
package decode

import (
	"fmt"
	"io"
	"os"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/wavetap/wavetap-go/internal/audio"
)

// WAV decodes a RIFF/WAVE file.
type WAV struct {
	file    *os.File
	decoder *wav.Decoder
	buf     *gaudio.IntBuffer
	pending []int16
}

// NewWAV opens a WAV file for decoding.
func NewWAV(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}

	return &WAV{
		file:    f,
		decoder: d,
		buf:     &gaudio.IntBuffer{Data: make([]int, 4096)},
	}, nil
}

// Format describes the decoded stream.
func (w *WAV) Format() audio.Format {
	return audio.Format{
		Codec:      "wav",
		SampleRate: int(w.decoder.SampleRate),
		Channels:   int(w.decoder.NumChans),
		BitDepth:   16,
	}
}

// Duration returns the track length reported by the container.
func (w *WAV) Duration() time.Duration {
	d, err := w.decoder.Duration()
	if err != nil {
		return 0
	}
	return d
}

// Read fills p with interleaved samples, converting the source bit depth
// to 16-bit.
func (w *WAV) Read(p []int16) (int, error) {
	total := 0
	for total < len(p) {
		if len(w.pending) > 0 {
			n := copy(p[total:], w.pending)
			w.pending = w.pending[n:]
			total += n
			continue
		}

		n, err := w.decoder.PCMBuffer(w.buf)
		if n == 0 {
			if total > 0 {
				return total, nil
			}
			if err != nil && err != io.EOF {
				return 0, fmt.Errorf("wav decode error: %w", err)
			}
			return 0, io.EOF
		}

		shift := int(w.decoder.BitDepth) - 16
		w.pending = make([]int16, n)
		for i := 0; i < n; i++ {
			v := w.buf.Data[i]
			// 8-bit WAV is unsigned (silence at 128); recenter before
			// widening so silence maps to 0.
			if w.decoder.BitDepth == 8 {
				v -= 128
			}
			switch {
			case shift > 0:
				v >>= shift
			case shift < 0:
				v <<= -shift
			}
			w.pending[i] = int16(v)
		}
	}
	return total, nil
}

// Seek is not supported for WAV streams.
func (w *WAV) Seek(pos time.Duration) error {
	return ErrSeekUnsupported
}

// Close releases the underlying file.
func (w *WAV) Close() error {
	return w.file.Close()
}
