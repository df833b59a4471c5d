// Package speech implements the host-side voice-to-text capability: making
// sure a recognition model is on disk, capturing microphone audio to WAV, and
// turning a finished recording into text.
package speech
