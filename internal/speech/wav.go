package speech

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

const wavHeaderSize = 44

// WAVInfo describes a PCM WAV file.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int64
}

// Duration returns the playing time of the audio data.
func (w WAVInfo) Duration() time.Duration {
	bytesPerSecond := int64(w.SampleRate * w.Channels * w.BitsPerSample / 8)
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(w.DataSize * int64(time.Second) / bytesPerSecond)
}

// WriteWAVHeader writes a 44-byte PCM WAV header for dataSize bytes of audio.
func WriteWAVHeader(w io.Writer, sampleRate, channels, bitsPerSample int, dataSize int64) error {
	header := make([]byte, wavHeaderSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	_, err := w.Write(header)
	return err
}

// PatchWAVSizes rewrites the RIFF and data chunk sizes once recording is done.
func PatchWAVSizes(f *os.File, dataSize int64) error {
	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(36+dataSize)); err != nil {
		return err
	}
	if _, err := f.Seek(40, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, uint32(dataSize))
}

// ReadWAVInfo parses the header of the WAV file at path.
func ReadWAVInfo(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return WAVInfo{}, fmt.Errorf("speech: read wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return WAVInfo{}, fmt.Errorf("speech: not a valid WAV file")
	}
	return WAVInfo{
		Channels:      int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(header[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(header[34:36])),
		DataSize:      int64(binary.LittleEndian.Uint32(header[40:44])),
	}, nil
}
