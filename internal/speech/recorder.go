package speech

import "errors"

// Recorder errors.
var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Recorder captures microphone audio into a file. The portaudio implementation
// lives in package mic so this package stays free of cgo.
type Recorder interface {
	// Start begins capturing into a new WAV file at path.
	Start(path string) error
	// Stop ends the capture and returns the path of the finished file.
	Stop() (string, error)
}
