package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	bridge backend.Bridge
	search backend.Searcher
	idx    index.NoteIndex
}

// NewHandler creates a new Handler. Search is enabled when bridge implements
// backend.Searcher.
func NewHandler(bridge backend.Bridge, idx index.NoteIndex) *Handler {
	h := &Handler{bridge: bridge, idx: idx}
	if s, ok := bridge.(backend.Searcher); ok {
		h.search = s
	}
	return h
}

// Invoke handles POST /api/invoke/{command}.
//
//	@Summary		Run a named bridge command
//	@Tags			invoke
//	@Accept			json
//	@Produce		json
//	@Param			command	path		string	true	"Command name"	Enums(load_notes, save_note, delete_note, ensure_model_ready, start_audio_recording, stop_audio_recording, search_notes)
//	@Success		200		{object}	backend.Response
//	@Failure		400		{object}	backend.Response
//	@Failure		404		{object}	backend.Response
//	@Failure		500		{object}	backend.Response
//	@Security		BearerAuth
//	@Router			/invoke/{command} [post]
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	cmd := chi.URLParam(r, "command")
	ctx := r.Context()

	var (
		result any
		err    error
	)
	switch cmd {
	case backend.CmdLoadNotes:
		result, err = h.bridge.LoadNotes(ctx)

	case backend.CmdSaveNote:
		var args backend.SaveNoteArgs
		if err = decodeArgs(r.Body, &args); err == nil {
			err = h.bridge.SaveNote(ctx, args.Note)
		}

	case backend.CmdDeleteNote:
		var args backend.DeleteNoteArgs
		if err = decodeArgs(r.Body, &args); err == nil {
			err = h.bridge.DeleteNote(ctx, args.NoteID)
		}

	case backend.CmdEnsureModel:
		err = h.bridge.EnsureModelReady(ctx)

	case backend.CmdStartAudio:
		err = h.bridge.StartAudioRecording(ctx)

	case backend.CmdStopAudio:
		result, err = h.bridge.StopAudioRecording(ctx)

	case backend.CmdSearchNotes:
		if h.search == nil {
			writeJSON(w, http.StatusNotFound, errorBody("search not available", backend.CodeNotFound))
			return
		}
		var args backend.SearchArgs
		if err = decodeArgs(r.Body, &args); err == nil {
			if args.Query == "" {
				err = fmt.Errorf("%w: query is required", apperr.ErrValidation)
			} else {
				result, err = h.search.SearchNotes(ctx, args.Query, args.Limit)
			}
		}

	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown command "+strconv.Quote(cmd), backend.CodeNotFound))
		return
	}

	if err != nil {
		writeError(w, cmd, err)
		return
	}
	writeJSON(w, http.StatusOK, backend.Response{Result: result})
}

// decodeArgs reads a JSON body into v. An empty body is rejected.
func decodeArgs(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", apperr.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body: %w", apperr.ErrValidation, err)
	}
	return nil
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed notes with optional pagination and tag filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")

	rows, total, err := h.idx.ListNotes(limit, offset, tag)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", backend.CodeInternal))
		return
	}
	items := make([]NoteListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, listItem(row))
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}
