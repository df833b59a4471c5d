// Package mic captures microphone audio through portaudio.
package mic

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/starford/murmur/internal/speech"
)

const bitsPerSample = 16

// PortAudioRecorder records mono PCM16 audio from the default input device.
// It implements speech.Recorder.
type PortAudioRecorder struct {
	sampleRate int
	logger     *slog.Logger

	mu     sync.Mutex // guards stream/path
	stream *portaudio.Stream
	path   string

	fileMu   sync.Mutex // guards file/written/writeErr, shared with the audio callback
	file     *os.File
	written  int64
	writeErr error
}

// NewPortAudioRecorder creates a recorder capturing at sampleRate Hz.
func NewPortAudioRecorder(sampleRate int, logger *slog.Logger) *PortAudioRecorder {
	return &PortAudioRecorder{sampleRate: sampleRate, logger: logger}
}

// Start opens the default input device and streams samples into path.
func (r *PortAudioRecorder) Start(path string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return speech.ErrAlreadyRecording
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("mic: init portaudio: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("mic: create recording: %w", err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(path)
			_ = portaudio.Terminate()
		}
	}()

	// Sizes are patched on Stop.
	if err := speech.WriteWAVHeader(file, r.sampleRate, 1, bitsPerSample, 0); err != nil {
		return fmt.Errorf("mic: write wav header: %w", err)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("mic: no input device available: %w", err)
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(r.sampleRate)
	params.FramesPerBuffer = 1024

	r.fileMu.Lock()
	r.file, r.written, r.writeErr = file, 0, nil
	r.fileMu.Unlock()

	stream, err := portaudio.OpenStream(params, r.capture)
	if err != nil {
		return fmt.Errorf("mic: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("mic: start input stream: %w", err)
	}

	r.stream = stream
	r.path = path
	r.logger.Info("recording started",
		slog.String("device", dev.Name),
		slog.String("path", path),
		slog.Int("sample_rate", r.sampleRate))
	return nil
}

// capture runs on the audio thread.
func (r *PortAudioRecorder) capture(in []int16) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	if r.file == nil || r.writeErr != nil {
		return
	}
	if err := binary.Write(r.file, binary.LittleEndian, in); err != nil {
		r.writeErr = err
		return
	}
	r.written += int64(len(in) * bitsPerSample / 8)
}

// Stop halts the stream, finalizes the WAV header and returns the file path.
func (r *PortAudioRecorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return "", speech.ErrNotRecording
	}
	stream, path := r.stream, r.path
	r.stream, r.path = nil, ""

	if err := stream.Stop(); err != nil {
		r.logger.Warn("stop stream failed", slog.String("error", err.Error()))
	}
	if err := stream.Close(); err != nil {
		r.logger.Warn("close stream failed", slog.String("error", err.Error()))
	}
	defer func() {
		if err := portaudio.Terminate(); err != nil {
			r.logger.Warn("terminate portaudio failed", slog.String("error", err.Error()))
		}
	}()

	r.fileMu.Lock()
	file, written, writeErr := r.file, r.written, r.writeErr
	r.file = nil
	r.fileMu.Unlock()

	if writeErr != nil {
		_ = file.Close()
		return "", fmt.Errorf("mic: write samples: %w", writeErr)
	}
	if err := speech.PatchWAVSizes(file, written); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("mic: finalize wav: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("mic: close recording: %w", err)
	}

	r.logger.Info("recording stopped", slog.String("path", path), slog.Int64("bytes", written))
	return path, nil
}

var _ speech.Recorder = (*PortAudioRecorder)(nil)
