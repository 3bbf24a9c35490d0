// ABOUTME: MP3 decoder backed by hajimehoshi/go-mp3
// ABOUTME: Produces 16-bit stereo PCM with sample-accurate seeking
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/wavetap/wavetap-go/internal/audio"
)

// MP3 decodes an MP3 file. go-mp3 always emits 16-bit little-endian
// stereo at the file's sample rate.
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
}

// NewMP3 opens an MP3 file for decoding.
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	d, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3{file: f, decoder: d}, nil
}

// Format describes the decoded stream.
func (m *MP3) Format() audio.Format {
	return audio.Format{
		Codec:      "mp3",
		SampleRate: m.decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
}

// Duration returns the decoded track length.
func (m *MP3) Duration() time.Duration {
	n := m.decoder.Length() // decoded bytes: 4 per stereo frame
	if n <= 0 {
		return 0
	}
	frames := n / 4
	return time.Duration(frames) * time.Second / time.Duration(m.decoder.SampleRate())
}

// Read fills p with interleaved samples.
func (m *MP3) Read(p []int16) (int, error) {
	buf := make([]byte, len(p)*2)
	n, err := io.ReadFull(m.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := 0; i < samples; i++ {
		p[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	if samples > 0 && err == io.EOF {
		// Deliver the tail first; report EOF on the next call.
		err = nil
	}
	return samples, err
}

// Seek repositions to the frame nearest pos.
func (m *MP3) Seek(pos time.Duration) error {
	frame := int64(pos.Seconds() * float64(m.decoder.SampleRate()))
	if _, err := m.decoder.Seek(frame*4, io.SeekStart); err != nil {
		return fmt.Errorf("mp3 seek failed: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (m *MP3) Close() error {
	return m.file.Close()
}
