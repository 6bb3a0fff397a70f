package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ChatService answers a free-text query, writing the response incrementally
// to w.
type ChatService interface {
	Stream(ctx context.Context, query string, w io.Writer) error
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Query string `json:"query"`
}

// Chat accepts {"query": "..."} and streams the answer back as chunked plain
// text. Validation failures return 400; failures before the first byte is
// streamed return 500.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	sw := &streamWriter{w: w}
	if err := h.chat.Stream(r.Context(), req.Query, sw); err != nil {
		if !sw.wrote {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "failed to answer query",
				"details": err.Error(),
			})
			return
		}
		// Too late for an error status; the stream just ends short.
		log.Error().Err(err).Msg("Chat stream aborted mid-response")
	}
}

// streamWriter sends each generation delta to the client unbuffered. Headers
// go out lazily on the first write so earlier failures can still produce an
// error status.
type streamWriter struct {
	w     http.ResponseWriter
	wrote bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if !s.wrote {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.WriteHeader(http.StatusOK)
		s.wrote = true
	}
	n, err := s.w.Write(p)
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
