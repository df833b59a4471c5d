package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/models"
)

// Remote invokes commands on a running host over HTTP.
type Remote struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemote creates a bridge to the host at baseURL, e.g. http://localhost:8080.
// Calls have no client-side timeout; cancel ctx to abandon one.
func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{},
	}
}

func (r *Remote) LoadNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := r.invoke(ctx, CmdLoadNotes, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *Remote) SaveNote(ctx context.Context, n models.Note) error {
	return r.invoke(ctx, CmdSaveNote, SaveNoteArgs{Note: n}, nil)
}

func (r *Remote) DeleteNote(ctx context.Context, id int64) error {
	return r.invoke(ctx, CmdDeleteNote, DeleteNoteArgs{NoteID: id}, nil)
}

func (r *Remote) EnsureModelReady(ctx context.Context) error {
	return r.invoke(ctx, CmdEnsureModel, nil, nil)
}

func (r *Remote) StartAudioRecording(ctx context.Context) error {
	return r.invoke(ctx, CmdStartAudio, nil, nil)
}

func (r *Remote) StopAudioRecording(ctx context.Context) (string, error) {
	var text string
	if err := r.invoke(ctx, CmdStopAudio, nil, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (r *Remote) SearchNotes(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	var res []index.SearchResult
	if err := r.invoke(ctx, CmdSearchNotes, SearchArgs{Query: query, Limit: limit}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// invoke posts args to /api/invoke/{cmd} and decodes the result into out.
func (r *Remote) invoke(ctx context.Context, cmd string, args, out any) error {
	var body io.Reader = http.NoBody
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("%s: encode args: %w", cmd, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/invoke/"+cmd, body)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
		Code   string          `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: HTTP %d: decode response: %w", cmd, resp.StatusCode, err)
	}
	if envelope.Error != "" || resp.StatusCode >= 300 {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("%s: %w", cmd, codeError(envelope.Code, msg))
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", cmd, err)
		}
	}
	return nil
}

var (
	_ Bridge   = (*Remote)(nil)
	_ Searcher = (*Remote)(nil)
	_ Bridge   = (*Local)(nil)
	_ Searcher = (*Local)(nil)
)
