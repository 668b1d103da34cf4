package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

type modelsResponse struct {
	Models      []string `json:"models"`
	Unavailable bool     `json:"unavailable"`
	Hint        string   `json:"hint,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type documentResponse struct {
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Preview    string `json:"preview"`
}

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	discovery, err := s.models.Discover(r.Context())
	if err != nil {
		jsonError(w, err)
		return
	}

	resp := modelsResponse{Models: discovery.Models, Unavailable: discovery.Unavailable}
	if resp.Models == nil {
		resp.Models = []string{}
	}
	if discovery.Unavailable {
		resp.Hint = domain.Describe(domain.ErrModelUnavailable).Hint
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	session := s.sessions.Create()
	id := session.Conversation().ID()
	w.Header().Set(SessionHeader, id)
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.sessions.Get(id); err != nil {
		jsonError(w, err)
		return
	}
	s.sessions.End(id)
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, s.uploadTooLarge())
			return
		}
		jsonError(w, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, fmt.Errorf("%w: file is required: %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, s.uploadTooLarge())
		return
	}

	session, err := s.session(w, r)
	if err != nil {
		jsonError(w, err)
		return
	}
	id := session.Conversation().ID()
	defer s.lock(id)()

	docs := session.Documents()
	doc, err := docs.Load(r.Context(), sanitizeFilename(header.Filename), file)
	if err != nil {
		jsonError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		SessionID:  id,
		DocumentID: doc.ID,
		Name:       doc.Name,
		Pages:      doc.Pages,
		Chunks:     len(docs.Chunks()),
		Preview:    doc.Preview(s.cfg.PreviewChars),
	})
}

func (s *Server) uploadTooLarge() error {
	return fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.cfg.MaxUploadBytes)
}

func (s *Server) handleAskDocument(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonError(w, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}

	session, err := s.session(w, r)
	if err != nil {
		jsonError(w, err)
		return
	}
	defer s.lock(session.Conversation().ID())()

	docs := session.Documents()
	if docs.Document() == nil {
		jsonError(w, domain.ErrNoDocument)
		return
	}
	model, err := s.resolveModel(r.Context(), req.Model)
	if err != nil {
		jsonError(w, err)
		return
	}

	stream := newStreamWriter(w)
	answer, err := docs.Answer(r.Context(), req.Question, model, func(f driving.Fragment) {
		chunk := f.ChunkIndex
		stream.send(streamEvent{Chunk: &chunk, Text: f.Text})
	})
	if err != nil {
		stream.fail(err)
		return
	}
	stream.send(streamEvent{Done: true, Reply: answer})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, fmt.Errorf("%w: message is required", domain.ErrInvalidInput))
		return
	}

	session, err := s.session(w, r)
	if err != nil {
		jsonError(w, err)
		return
	}
	defer s.lock(session.Conversation().ID())()

	model, err := s.resolveModel(r.Context(), req.Model)
	if err != nil {
		jsonError(w, err)
		return
	}

	stream := newStreamWriter(w)
	reply, err := session.Conversation().Ask(r.Context(), req.Message, model, func(token string) {
		stream.send(streamEvent{Text: token})
	})
	if err != nil {
		stream.fail(err)
		return
	}
	stream.send(streamEvent{Done: true, Reply: reply})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		jsonError(w, fmt.Errorf("%w: %s header is required", domain.ErrInvalidInput, SessionHeader))
		return
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		jsonError(w, err)
		return
	}

	history := session.Conversation().History()
	resp := make([]messageResponse, len(history))
	for i, msg := range history {
		resp[i] = messageResponse{Role: msg.Role.String(), Content: msg.Content, CreatedAt: msg.CreatedAt}
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		return "upload.pdf"
	}
	return name
}
