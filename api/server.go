package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/config"
	"github.com/fabfab/herhaq/tone"
)

//go:embed openapi.yaml
var openAPISpecYAML []byte

const (
	msgInternal      = "Internal server error"
	msgRetryLater    = "Unable to process your request. Please try again later."
	msgQueryRequired = "Query is required and must be a non-empty string"
	msgQueryDetails  = "Please provide a valid question in the query field"
	msgNeedJSON      = "Content-Type must be application/json"
	msgNoJSON        = "No JSON data provided"

	healthTimeFormat = "2006-01-02 15:04:05.000000"
)

// Engine is the part of the query engine the HTTP surface needs.
type Engine interface {
	Chat(ctx context.Context, question string, cfg chat.Config) (chat.Response, error)
}

// Server exposes the query engine over the HerHaq HTTP routes.
type Server struct {
	cfg      config.ServerConfig
	engine   Engine
	tone     tone.Processor
	logger   zerolog.Logger
	validate *validator.Validate
	origins  map[string]struct{}
	now      func() time.Time
	handler  http.Handler
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

type toneAnswerResponse struct {
	Answer      string `json:"answer"`
	Success     bool   `json:"success"`
	QueryLength int    `json:"query_length"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

type chatInput struct {
	Query string `validate:"required,min=3,max=500"`
}

// New constructs a Server. The tone processor is applied only on /chat.
func New(cfg config.ServerConfig, engine Engine, toneProc tone.Processor, logger zerolog.Logger) *Server {
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		tone:     toneProc,
		logger:   logger,
		validate: validator.New(),
		origins:  origins,
		now:      time.Now,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns an http.Server bound to the configured port and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/openapi.yaml", s.handleOpenAPI)
	mux.Handle("/api/chat", s.withCORS(http.HandlerFunc(s.handleAPIChat)))
	mux.Handle("/chat", s.withCORS(http.HandlerFunc(s.handleChat)))
	return s.withRequestID(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	s.writeJSON(w, r, http.StatusOK, statusResponse{
		Status:    "healthy",
		Timestamp: s.now().Format(healthTimeFormat),
	})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline; filename=\"openapi.yaml\"")
	_, _ = w.Write(openAPISpecYAML)
}

// handleAPIChat answers with the plain engine output.
func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	query, status, resp := s.readQuery(r, false)
	if resp != nil {
		s.writeJSON(w, r, status, resp)
		return
	}

	answer, err := s.ask(r, strings.TrimSpace(query))
	if err != nil {
		s.writeEngineError(w, r, err, errorResponse{Error: msgInternal})
		return
	}

	s.writeJSON(w, r, http.StatusOK, answerResponse{Answer: answer})
}

// handleChat validates length and returns the answer in the persona voice.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok"})
		return
	}
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	query, status, resp := s.readQuery(r, true)
	if resp != nil {
		s.writeJSON(w, r, status, resp)
		return
	}

	input := chatInput{Query: strings.TrimSpace(query)}
	if err := s.validate.Struct(input); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, validationResponse(err))
		return
	}

	answer, err := s.ask(r, input.Query)
	if err != nil {
		s.writeEngineError(w, r, err, errorResponse{Error: msgInternal, Details: msgRetryLater})
		return
	}

	s.writeJSON(w, r, http.StatusOK, toneAnswerResponse{
		Answer:      s.tone.Apply(answer),
		Success:     true,
		QueryLength: len([]rune(input.Query)),
	})
}

func (s *Server) ask(r *http.Request, query string) (string, error) {
	resp, err := s.engine.Chat(r.Context(), query, chat.Config{})
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// readQuery extracts the "query" field of a JSON body. A non-nil response
// means the request was rejected with the returned status.
func (s *Server) readQuery(r *http.Request, detailed bool) (string, int, *errorResponse) {
	if !isJSON(r) {
		return "", http.StatusBadRequest, &errorResponse{Error: msgNeedJSON}
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		s.requestLogger(r).Debug().Err(err).Msg("decode request body")
		return "", http.StatusBadRequest, &errorResponse{Error: "Invalid JSON body"}
	}
	if len(body) == 0 {
		return "", http.StatusBadRequest, &errorResponse{Error: msgNoJSON}
	}

	query, ok := body["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		resp := &errorResponse{Error: msgQueryRequired}
		if detailed {
			resp.Details = msgQueryDetails
		}
		return "", http.StatusBadRequest, resp
	}
	return query, http.StatusOK, nil
}

func validationResponse(err error) errorResponse {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "min":
			return errorResponse{
				Error:   "Query too short",
				Details: "Please provide a more detailed question (minimum 3 characters)",
			}
		case "max":
			return errorResponse{
				Error:   "Query too long",
				Details: "Please limit your question to 500 characters",
			}
		}
	}
	return errorResponse{Error: msgQueryRequired, Details: msgQueryDetails}
}

// writeEngineError logs the cause and returns only the generic payload.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error, generic errorResponse) {
	logger := s.requestLogger(r)
	if errors.Is(err, chat.ErrEmptyQuery) {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: msgQueryRequired})
		return
	}

	event := logger.Error().Err(err)
	var embedErr *chat.EmbeddingError
	var genErr *chat.GenerationError
	switch {
	case errors.As(err, &embedErr):
		event = event.Str("stage", "embedding")
	case errors.As(err, &genErr):
		event = event.Str("stage", "generation")
	}
	event.Msg("query failed")

	s.writeJSON(w, r, http.StatusInternalServerError, generic)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeJSON(w, r, http.StatusMethodNotAllowed, errorResponse{Error: fmt.Sprintf("method not allowed, use %s", allowed)})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.requestLogger(r).Warn().Err(err).Msg("encode response")
	}
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
