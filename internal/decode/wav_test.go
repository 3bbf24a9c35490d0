// ABOUTME: Tests for the WAV decoder
// ABOUTME: Decodes a synthesized in-memory WAV file
package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"
)

// buildWAV writes a canonical 16-bit PCM RIFF/WAVE file.
func buildWAV(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()

	var data bytes.Buffer
	for _, s := range samples {
		if err := binary.Write(&data, binary.LittleEndian, s); err != nil {
			t.Fatalf("failed to encode sample: %v", err)
		}
	}

	var buf bytes.Buffer
	dataLen := uint32(data.Len())
	blockAlign := uint16(channels * 2)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*int(blockAlign)))
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func TestWAVDecode(t *testing.T) {
	samples := []int16{0, 100, -100, 200, -200, 300, -300, 32767}
	path := writeTempFile(t, "tone.wav", buildWAV(t, 8000, 2, samples))

	d, err := NewWAV(path)
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}
	defer d.Close()

	f := d.Format()
	if f.Codec != "wav" || f.SampleRate != 8000 || f.Channels != 2 || f.BitDepth != 16 {
		t.Errorf("unexpected format: %+v", f)
	}

	// 4 stereo frames at 8kHz = 0.5ms
	if dur := d.Duration(); dur != 500*time.Microsecond {
		t.Errorf("Duration = %v, want 500µs", dur)
	}

	got := make([]int16, len(samples))
	n, err := d.Read(got)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != len(samples) {
		t.Fatalf("Read returned %d samples, want %d", n, len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}

	if _, err := d.Read(got); err != io.EOF {
		t.Errorf("expected EOF after stream end, got %v", err)
	}
}

func TestWAVReadInShortPieces(t *testing.T) {
	samples := []int16{1, 2, 3, 4, 5, 6}
	path := writeTempFile(t, "short.wav", buildWAV(t, 44100, 1, samples))

	d, err := NewWAV(path)
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}
	defer d.Close()

	var got []int16
	buf := make([]int16, 4)
	for {
		n, err := d.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}

	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestWAVSeekUnsupported(t *testing.T) {
	path := writeTempFile(t, "seek.wav", buildWAV(t, 8000, 1, []int16{1, 2, 3}))

	d, err := NewWAV(path)
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}
	defer d.Close()

	if err := d.Seek(time.Second); err != ErrSeekUnsupported {
		t.Errorf("Seek = %v, want ErrSeekUnsupported", err)
	}
}

// buildWAV8 writes an 8-bit PCM RIFF/WAVE file; samples are the raw
// unsigned bytes (silence at 128).
func buildWAV8(t *testing.T, sampleRate, channels int, samples []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	dataLen := uint32(len(samples))
	blockAlign := uint16(channels)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*int(blockAlign)))
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(8))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(samples)

	return buf.Bytes()
}

func TestWAV8BitRecentered(t *testing.T) {
	// Unsigned 8-bit silence (128) must decode to 0, full scale to the
	// int16 extremes.
	raw := []byte{128, 255, 0, 192, 64}
	want := []int16{0, 32512, -32768, 16384, -16384}
	path := writeTempFile(t, "8bit.wav", buildWAV8(t, 8000, 1, raw))

	d, err := NewWAV(path)
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}
	defer d.Close()

	got := make([]int16, len(want))
	n, err := d.Read(got)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != len(want) {
		t.Fatalf("Read returned %d samples, want %d", n, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}
