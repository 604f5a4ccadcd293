// Package server exposes the deep-research chat loop over HTTP: one chat
// endpoint that forwards to the upstream model and a small CRUD surface for
// the persisted sessions.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/pkg/thinking"
)

// Server wires the chat client and session store behind a Fiber app.
type Server struct {
	config Config
	store  session.Store
	client *llm.Client
	logger *zap.Logger
	app    *fiber.App
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server over the given store and upstream client.
func New(config Config, store session.Store, client *llm.Client, logger *zap.Logger) *Server {
	if config.Model == "" {
		config.Model = llm.DefaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = llm.DefaultMaxTokens
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = session.DefaultSystemPrompt
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		StreamRequestBody:     true,
	})

	s := &Server{
		config: config,
		store:  store,
		client: client,
		logger: logger,
		app:    app,
	}

	app.Post("/api/chat", s.handleChat)

	app.Post("/api/sessions", s.handleCreateSession)
	app.Get("/api/sessions", s.handleListSessions)
	app.Post("/api/sessions/import", s.handleImportSessions)
	app.Get("/api/sessions/:id", s.handleGetSession)
	app.Delete("/api/sessions/:id", s.handleDeleteSession)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.config.Model),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener; used by tests.
func (s *Server) RunWithListener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close shuts down the server and releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	Stream    bool   `json:"stream,omitempty"`
}

type chatResponse struct {
	SessionID string    `json:"session_id"`
	Model     string    `json:"model"`
	Thinking  string    `json:"thinking,omitempty"`
	Answer    string    `json:"answer"`
	Usage     llm.Usage `json:"usage"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

// handleChat runs one conversation turn: append the user's message, call the
// upstream model, split the thinking section out of the reply, persist, and
// return the split result. On upstream failure the session keeps the user
// turn and nothing else — no partial assistant entry is ever stored.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "message is required"})
	}

	sess := s.loadOrCreate(c.Context(), req.SessionID)

	s.logger.Debug("received chat request",
		zap.String("session_id", sess.ID),
		zap.Int("turn_count", len(sess.Turns)),
		zap.Bool("stream", req.Stream),
	)

	sess.Append(session.Turn{
		Role:    session.RoleUser,
		Content: req.Message,
		Meta: &session.TurnMeta{
			TokenEstimate: session.EstimateTokens(req.Message),
			Timestamp:     time.Now().UTC(),
		},
	})

	chatReq := &llm.ChatRequest{
		Model:     s.config.Model,
		Messages:  sess.Messages(),
		MaxTokens: s.config.MaxTokens,
	}

	if req.Stream {
		return s.handleStreamingChat(c, sess, chatReq, startTime)
	}
	return s.handleNonStreamingChat(c, sess, chatReq, startTime)
}

func (s *Server) handleNonStreamingChat(c *fiber.Ctx, sess *session.Session, chatReq *llm.ChatRequest, startTime time.Time) error {
	resp, err := s.client.Complete(c.Context(), chatReq)
	if err != nil {
		s.logger.Error("upstream request failed", zap.Error(err))
		// The attempted user turn stays in the transcript.
		s.save(c.Context(), sess)
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: err.Error()})
	}

	elapsed := time.Since(startTime)
	content := resp.Text()

	s.logger.Debug("received response from upstream",
		zap.String("model", resp.Model),
		zap.String("content_preview", truncate(content, 100)),
		zap.Duration("duration", elapsed),
	)

	split := thinking.Split(content)
	s.recordAssistantTurn(sess, content, resp.Model, resp.Usage.CompletionTokens, elapsed)
	s.save(c.Context(), sess)

	return c.JSON(chatResponse{
		SessionID: sess.ID,
		Model:     resp.Model,
		Thinking:  split.Thinking,
		Answer:    split.Answer,
		Usage:     resp.Usage,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// streamEvent is one NDJSON line of a streaming chat response: content
// deltas while the model generates, then either an error or a final record
// with the split thinking/answer.
type streamEvent struct {
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Done      bool   `json:"done,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
	Thinking  string `json:"thinking,omitempty"`
	Answer    string `json:"answer,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
}

func (s *Server) handleStreamingChat(c *fiber.Ctx, sess *session.Session, chatReq *llm.ChatRequest, startTime time.Time) error {
	c.Set("Content-Type", "application/x-ndjson")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context dies with the handler; storage and upstream
		// consumption outlive it.
		ctx := context.Background()

		deltas := make(chan llm.StreamDelta)
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.client.Stream(ctx, chatReq, deltas)
		}()

		var full strings.Builder
		for d := range deltas {
			if d.Done {
				continue
			}
			full.WriteString(d.Content)
			writeEvent(w, streamEvent{Content: d.Content})
		}

		if err := <-errCh; err != nil {
			s.logger.Error("upstream stream failed", zap.Error(err))
			s.save(ctx, sess)
			writeEvent(w, streamEvent{Error: err.Error()})
			return
		}

		elapsed := time.Since(startTime)
		content := full.String()

		s.logger.Debug("streaming complete",
			zap.String("content_preview", truncate(content, 200)),
			zap.Duration("duration", elapsed),
		)

		split := thinking.Split(content)
		s.recordAssistantTurn(sess, content, s.config.Model, 0, elapsed)
		s.save(ctx, sess)

		writeEvent(w, streamEvent{
			Done:      true,
			SessionID: sess.ID,
			Model:     s.config.Model,
			Thinking:  split.Thinking,
			Answer:    split.Answer,
			ElapsedMS: elapsed.Milliseconds(),
		})
	}))

	return nil
}

func writeEvent(w *bufio.Writer, ev streamEvent) {
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	w.Write(line)
	w.Write([]byte("\n"))
	w.Flush()
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req struct {
		SystemPrompt string `json:"system_prompt,omitempty"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
		}
	}

	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = s.config.SystemPrompt
	}

	sess := session.New(prompt)
	if err := s.store.Save(c.Context(), sess); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to save session"})
	}

	s.logger.Info("session created", zap.String("session_id", sess.ID))
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	summaries, err := s.store.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to list sessions"})
	}

	return c.JSON(map[string]any{
		"count":    len(summaries),
		"sessions": summaries,
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "id parameter required"})
	}

	sess, err := s.store.Load(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "session not found"})
	}

	return c.JSON(sess)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "id parameter required"})
	}

	if err := s.store.Delete(c.Context(), id); err != nil {
		var notFound session.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "session not found"})
		}
		s.logger.Error("failed to delete session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to delete session"})
	}

	return c.JSON(map[string]string{"status": "deleted"})
}

// importResponse reports what an import batch did.
type importResponse struct {
	New      int `json:"new"`
	Existing int `json:"existing"`
	Errors   int `json:"errors"`
}

// handleImportSessions accepts a batch of sessions and stores the ones whose
// ids aren't already present. Existing sessions are left untouched.
func (s *Server) handleImportSessions(c *fiber.Ctx) error {
	var sessions []*session.Session
	if err := json.Unmarshal(c.Body(), &sessions); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	var result importResponse
	for _, sess := range sessions {
		if sess == nil || sess.ID == "" {
			result.Errors++
			continue
		}

		if _, err := s.store.Load(c.Context(), sess.ID); err == nil {
			result.Existing++
			continue
		}

		if err := s.store.Save(c.Context(), sess); err != nil {
			s.logger.Warn("failed to import session", zap.String("session_id", sess.ID), zap.Error(err))
			result.Errors++
			continue
		}
		result.New++
	}

	s.logger.Info("sessions imported",
		zap.Int("new", result.New),
		zap.Int("existing", result.Existing),
		zap.Int("errors", result.Errors),
	)

	return c.JSON(result)
}

// loadOrCreate resolves the session for a chat request. Missing or corrupt
// history reads as an empty session; an explicit id is kept so the caller's
// handle stays valid.
func (s *Server) loadOrCreate(ctx context.Context, id string) *session.Session {
	if id == "" {
		return session.New(s.config.SystemPrompt)
	}

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		s.logger.Debug("starting fresh session", zap.String("session_id", id), zap.Error(err))
		sess = session.New(s.config.SystemPrompt)
		sess.ID = id
	}

	return sess
}

func (s *Server) recordAssistantTurn(sess *session.Session, content, model string, completionTokens int, elapsed time.Duration) {
	tokens := completionTokens
	if tokens == 0 {
		tokens = session.EstimateTokens(content)
	}

	sess.Append(session.Turn{
		Role:    session.RoleAssistant,
		Content: content,
		Meta: &session.TurnMeta{
			Model:         model,
			ElapsedMS:     elapsed.Milliseconds(),
			TokenEstimate: tokens,
			Timestamp:     time.Now().UTC(),
		},
	})
}

// save persists the session, logging instead of failing the request when
// storage misbehaves.
func (s *Server) save(ctx context.Context, sess *session.Session) {
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Error("failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	s.logger.Info("session stored", zap.String("session_id", sess.ID), zap.Int("turns", len(sess.Turns)))
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
