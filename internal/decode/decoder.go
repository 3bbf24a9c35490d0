// ABOUTME: Decoder interface and file-type dispatch
// ABOUTME: Opens MP3, WAV and FLAC files as interleaved int16 PCM streams
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wavetap/wavetap-go/internal/audio"
)

// ErrSeekUnsupported is returned by decoders that cannot reposition.
var ErrSeekUnsupported = errors.New("decode: seek not supported for this format")

// Decoder yields interleaved 16-bit PCM from an encoded audio file.
// Decoders normalize other sample widths to 16-bit on read.
type Decoder interface {
	// Format describes the decoded stream.
	Format() audio.Format

	// Duration returns the total track length, or 0 if unknown.
	Duration() time.Duration

	// Read fills p with up to len(p) interleaved samples and returns the
	// number of samples read. io.EOF signals end of stream.
	Read(p []int16) (int, error)

	// Seek repositions the stream to the given time.
	Seek(pos time.Duration) error

	// Close releases the underlying file.
	Close() error
}

// Open creates a decoder for the file at path, dispatching on extension.
func Open(path string) (Decoder, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return NewMP3(path)
	case ".wav":
		return NewWAV(path)
	case ".flac":
		return NewFLAC(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .wav, .flac)", filepath.Ext(path))
	}
}

// CanDecode reports whether the file looks playable: a supported extension
// and a matching header. It reads only the first few bytes and never
// starts a pipeline.
func CanDecode(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac":
	default:
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := f.Read(header); err != nil {
		return false
	}

	switch ext {
	case ".wav":
		return bytes.Equal(header, []byte("RIFF"))
	case ".flac":
		return bytes.Equal(header, []byte("fLaC"))
	case ".mp3":
		// ID3 tag or an MPEG frame sync.
		return bytes.Equal(header[:3], []byte("ID3")) ||
			(header[0] == 0xFF && header[1]&0xE0 == 0xE0)
	}
	return false
}

// TitleFromPath derives a display title from the file name.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
