package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
)

// Command names accepted by the host.
const (
	CmdLoadNotes   = "load_notes"
	CmdSaveNote    = "save_note"
	CmdDeleteNote  = "delete_note"
	CmdEnsureModel = "ensure_model_ready"
	CmdStartAudio  = "start_audio_recording"
	CmdStopAudio   = "stop_audio_recording"
	CmdSearchNotes = "search_notes"
)

// SaveNoteArgs is the payload of save_note.
type SaveNoteArgs struct {
	Note models.Note `json:"note"`
}

// DeleteNoteArgs is the payload of delete_note.
type DeleteNoteArgs struct {
	NoteID int64 `json:"noteId"`
}

// SearchArgs is the payload of search_notes.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Response is the envelope every command answers with. Exactly one of Result
// or Error is set.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Error codes carried across the wire so callers can still match sentinels.
const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeModel        = "model_preparation"
	CodeRecordStart  = "recording_start"
	CodeRecordStop   = "recording_stop"
	CodeInternal     = "internal"
	CodeUnauthorized = "unauthorized"
)

var codeSentinels = []struct {
	code string
	err  error
}{
	{CodeValidation, apperr.ErrValidation},
	{CodeNotFound, apperr.ErrNotFound},
	{CodeModel, apperr.ErrModelPreparation},
	{CodeRecordStart, apperr.ErrRecordingStart},
	{CodeRecordStop, apperr.ErrRecordingStop},
}

// ErrorCode maps err to its wire code.
func ErrorCode(err error) string {
	for _, cs := range codeSentinels {
		if errors.Is(err, cs.err) {
			return cs.code
		}
	}
	return CodeInternal
}

// codeError rebuilds a host error on the client side.
func codeError(code, msg string) error {
	for _, cs := range codeSentinels {
		if cs.code == code {
			return fmt.Errorf("%w: %s", cs.err, strings.TrimPrefix(msg, cs.err.Error()+": "))
		}
	}
	return errors.New(msg)
}
