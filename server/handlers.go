package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ai_study_planner/generator"
	"ai_study_planner/publisher"
)

// --- Request / response bodies ---

type providerReq struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

type providerInfo struct {
	Kind   generator.ProviderKind `json:"kind"`
	Models []string               `json:"models"`
}

type sessionResp struct {
	SessionID string               `json:"session_id"`
	Provider  string               `json:"provider"`
	Model     string               `json:"model"`
	Turns     []generator.ChatTurn `json:"turns"`
	Plan      string               `json:"plan,omitempty"`
	Goal      string               `json:"goal,omitempty"`
}

type planReq struct {
	Topic        string   `json:"topic"`
	Goal         string   `json:"goal"`
	DailyHours   *float64 `json:"daily_hours"`
	Level        string   `json:"level"`
	SpecialNeeds string   `json:"special_needs"`
}

type planResp struct {
	Markdown string           `json:"markdown"`
	HTML     string           `json:"html"`
	Source   generator.Source `json:"source"`
	Warning  string           `json:"warning,omitempty"`
	Filename string           `json:"filename"`
}

type chatReq struct {
	Message string `json:"message"`
}

type chatResp struct {
	Reply   string               `json:"reply"`
	HTML    string               `json:"html"`
	Source  generator.Source     `json:"source"`
	Warning string               `json:"warning,omitempty"`
	Turns   []generator.ChatTurn `json:"turns"`
}

// defaultDailyHours matches the form slider's initial position. It only applies
// when daily_hours is absent; an explicit value goes through validation.
const defaultDailyHours = 2.0

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "sessions": s.store.len()})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []providerInfo{
		{Kind: generator.ProviderDeepSeek, Models: generator.ProviderDeepSeek.Models()},
		{Kind: generator.ProviderOpenAI, Models: generator.ProviderOpenAI.Models()},
	})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req providerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	agent, err := s.buildAgent(req)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	id := newSessionID()
	sess := generator.NewSession(id, agent)
	s.store.set(id, sess)
	s.log.Info("session created", "session_id", id, "provider", agent.LLM().Name(), "model", agent.LLM().Model())
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.log.Info("session ended", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProviderUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req providerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	agent, err := s.buildAgent(req)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	sess.Configure(agent)
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req planReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	level, err := generator.ParseLevel(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hours := defaultDailyHours
	if req.DailyHours != nil {
		hours = *req.DailyHours
	}
	userReq := generator.UserRequest{
		Topic:        strings.TrimSpace(req.Topic),
		Goal:         strings.TrimSpace(req.Goal),
		DailyHours:   hours,
		Level:        level,
		SpecialNeeds: strings.TrimSpace(req.SpecialNeeds),
	}

	ctx, cancel := s.llmContext(r.Context())
	defer cancel()
	reply, err := sess.GeneratePlan(ctx, userReq)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	if reply.Warning != "" {
		s.log.Warn("plan fallback", "session_id", sess.ID, "warning", reply.Warning)
	}
	html, err := publisher.RenderHTML(reply.Markdown)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, planResp{
		Markdown: reply.Markdown,
		HTML:     html,
		Source:   reply.Source,
		Warning:  reply.Warning,
		Filename: publisher.ExportFilename(userReq.Goal, time.Now()),
	})
}

func (s *Server) handlePlanExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	plan, goal := sess.Plan()
	if plan == "" {
		writeError(w, http.StatusNotFound, messageFor(generator.ErrNoPlan))
		return
	}
	name := publisher.ExportFilename(goal, time.Now())
	w.Header().Set("Content-Type", publisher.MarkdownContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(plan))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := s.llmContext(r.Context())
	defer cancel()
	reply, err := sess.Chat(ctx, req.Message)
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}
	html, err := publisher.RenderHTML(reply.Markdown)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResp{
		Reply:   reply.Markdown,
		HTML:    html,
		Source:  reply.Source,
		Warning: reply.Warning,
		Turns:   sess.Turns(),
	})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ResetConversation()
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*generator.Session, bool) {
	sess, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) sessionView(sess *generator.Session) sessionResp {
	provider, model := sess.Provider()
	plan, goal := sess.Plan()
	return sessionResp{
		SessionID: sess.ID,
		Provider:  provider,
		Model:     model,
		Turns:     sess.Turns(),
		Plan:      plan,
		Goal:      goal,
	}
}

func (s *Server) buildAgent(req providerReq) (*generator.Agent, error) {
	kind, err := generator.ParseProviderKind(req.Provider)
	if err != nil {
		return nil, &generator.ValidationError{Field: "provider", Msg: err.Error()}
	}
	llm, err := s.newLLM(s.cfg.Provider(kind, strings.TrimSpace(req.APIKey), req.Model))
	if err != nil {
		return nil, err
	}
	return generator.NewAgent(llm, s.observer)
}

func (s *Server) llmContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.LLMTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.LLMTimeout)
	}
	return context.WithCancel(parent)
}

func statusFor(err error) int {
	var ve *generator.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, generator.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, generator.ErrEmptyResult):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor maps errors to the text shown on the page.
func messageFor(err error) string {
	var ve *generator.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.Is(err, generator.ErrMissingAPIKey):
		return "请在侧边栏中输入API密钥"
	case errors.Is(err, generator.ErrEmptyResult):
		return "生成学习计划失败，请重试"
	case errors.Is(err, generator.ErrNoPlan):
		return "还没有生成学习计划"
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
