package game

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/category"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"
	httperrors "github.com/xveoe/quiz-arena-fiesta-sub000/pkg/http/errors"
	"github.com/xveoe/quiz-arena-fiesta-sub000/pkg/http/ws"
)

// Prewarmer enqueues best-effort cache warm-ups. Implemented by
// question.Warmer.
type Prewarmer interface {
	Enqueue(req question.WarmRequest) bool
}

// SessionDefaults fill create-session fields the caller omitted.
type SessionDefaults struct {
	QuestionCount   int
	Difficulty      int
	TimePerQuestion int
}

// HTTPHandlers provides the REST surface for sessions.
type HTTPHandlers struct {
	manager  *Manager
	catalog  *category.Catalog
	warmer   Prewarmer
	hub      *ws.Hub
	defaults SessionDefaults
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(manager *Manager, catalog *category.Catalog, warmer Prewarmer, hub *ws.Hub, defaults SessionDefaults, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		manager:  manager,
		catalog:  catalog,
		warmer:   warmer,
		hub:      hub,
		defaults: defaults,
		logger:   logger.With().Str("component", "game_http").Logger(),
	}
}

// CreateSessionRequest is the POST /v1/sessions payload.
type CreateSessionRequest struct {
	TeamNames       [2]string `json:"team_names"`
	JudgeName       string    `json:"judge_name"`
	QuestionCount   int       `json:"question_count"`
	Difficulty      int       `json:"difficulty"`
	TimePerQuestion int       `json:"time_per_question"`
	Categories      []string  `json:"categories"`
	Features        *Features `json:"features,omitempty"`
}

// CreateSessionResponse returns the new session with its judge token.
type CreateSessionResponse struct {
	SessionID  string   `json:"session_id"`
	JudgeToken string   `json:"judge_token"`
	Snapshot   Snapshot `json:"snapshot"`
}

// CreateSession handles POST /v1/sessions.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validateCreateSession(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}

	session, judgeToken, err := h.manager.Create(req.JudgeName)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create session")
		httperrors.RespondInternalError(w, "could not create session")
		return
	}

	features := DefaultFeatures()
	if req.Features != nil {
		features = *req.Features
	}
	setup := Setup{
		TeamNames:       req.TeamNames,
		JudgeName:       req.JudgeName,
		QuestionCount:   req.QuestionCount,
		Difficulty:      req.Difficulty,
		TimePerQuestion: req.TimePerQuestion,
		Categories:      req.Categories,
	}
	if err := session.Configure(setup, features); err != nil {
		h.manager.Close(session.ID)
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}

	// Pipe every state change to the spectator stream.
	sessionID := session.ID
	session.SetNotify(func(snap Snapshot) {
		h.broadcastSnapshot(sessionID, snap)
	})

	h.respondJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID:  session.ID.String(),
		JudgeToken: judgeToken,
		Snapshot:   session.Snapshot(),
	})
}

func (h *HTTPHandlers) validateCreateSession(req *CreateSessionRequest) error {
	if req.QuestionCount == 0 {
		req.QuestionCount = h.defaults.QuestionCount
	}
	if req.Difficulty == 0 {
		req.Difficulty = h.defaults.Difficulty
	}
	if req.TimePerQuestion == 0 {
		req.TimePerQuestion = h.defaults.TimePerQuestion
	}
	if req.QuestionCount <= 0 {
		return &ValidationError{Field: "question_count", Message: "question_count must be positive"}
	}
	if req.Difficulty < 1 || req.Difficulty > 100 {
		return &ValidationError{Field: "difficulty", Message: "difficulty must be between 1 and 100"}
	}
	if req.TimePerQuestion <= 0 {
		return &ValidationError{Field: "time_per_question", Message: "time_per_question must be positive"}
	}
	for _, cat := range req.Categories {
		if !h.catalog.Exists(cat) {
			return &ValidationError{Field: "categories", Message: "unknown category: " + cat}
		}
	}
	return nil
}

// GetSession handles GET /v1/sessions/{id}.
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

// StartGameResponse reports whether the fallback bank served questions,
// so the UI can show its informational notice.
type StartGameResponse struct {
	Snapshot     Snapshot `json:"snapshot"`
	UsedFallback bool     `json:"used_fallback"`
}

// StartGame handles POST /v1/sessions/{id}/start.
func (h *HTTPHandlers) StartGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.StartGame(r.Context()); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeStartFailed, err.Error())
		return
	}

	snap := session.Snapshot()

	// Best-effort warm-up for follow-up questions and swaps. Foreground
	// play never waits on these.
	if h.warmer != nil {
		for _, cat := range snap.Setup.Categories {
			h.warmer.Enqueue(question.WarmRequest{
				CategoryID: cat,
				Count:      snap.Setup.QuestionCount,
				Difficulty: snap.Setup.Difficulty,
			})
		}
	}

	h.respondJSON(w, http.StatusOK, StartGameResponse{Snapshot: snap, UsedFallback: snap.UsedFallback})
}

// ManualQuestionsRequest carries caller-authored questions.
type ManualQuestionsRequest struct {
	Questions []question.Question `json:"questions"`
}

// SetQuestions handles POST /v1/sessions/{id}/questions (manual entry).
func (h *HTTPHandlers) SetQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ManualQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := session.StartGameWithQuestions(req.Questions); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

// StartTimer handles POST /v1/sessions/{id}/timer/start.
func (h *HTTPHandlers) StartTimer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *Session, _ *http.Request) {
		s.StartTimer()
	})
}

// AnswerRequest selects an option for the acting team.
type AnswerRequest struct {
	Option string `json:"option"`
}

// SelectAnswer handles POST /v1/sessions/{id}/answer.
func (h *HTTPHandlers) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	session.SelectAnswer(req.Option)
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

// UseJoker handles POST /v1/sessions/{id}/joker.
func (h *HTTPHandlers) UseJoker(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *Session, _ *http.Request) {
		s.UseJoker()
	})
}

// PowerUpRequest names the power-up to consume.
type PowerUpRequest struct {
	Type string `json:"type"`
}

// UsePowerUp handles POST /v1/sessions/{id}/powerup.
func (h *HTTPHandlers) UsePowerUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PowerUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	switch req.Type {
	case PowerUpExtraTime, PowerUpDoublePoints, PowerUpSkipQuestion:
	default:
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "unknown power-up type", "type")
		return
	}
	session.UsePowerUp(req.Type)
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

// RefreshResponse reports whether a replacement question was found.
type RefreshResponse struct {
	Replaced bool     `json:"replaced"`
	Snapshot Snapshot `json:"snapshot"`
}

// RefreshQuestion handles POST /v1/sessions/{id}/refresh.
func (h *HTTPHandlers) RefreshQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	replaced := session.RefreshQuestion(r.Context())
	h.respondJSON(w, http.StatusOK, RefreshResponse{Replaced: replaced, Snapshot: session.Snapshot()})
}

// NextQuestion handles POST /v1/sessions/{id}/next.
func (h *HTTPHandlers) NextQuestion(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *Session, _ *http.Request) {
		s.NextQuestion()
	})
}

// ResetGame handles POST /v1/sessions/{id}/reset.
func (h *HTTPHandlers) ResetGame(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *Session, _ *http.Request) {
		s.ResetGame()
	})
}

// JudgeApprove handles POST /v1/sessions/{id}/judge/approve.
func (h *HTTPHandlers) JudgeApprove(w http.ResponseWriter, r *http.Request) {
	h.judgeMutate(w, r, func(s *Session, _ *http.Request) {
		s.JudgeApprove()
	})
}

// JudgeReject handles POST /v1/sessions/{id}/judge/reject.
func (h *HTTPHandlers) JudgeReject(w http.ResponseWriter, r *http.Request) {
	h.judgeMutate(w, r, func(s *Session, _ *http.Request) {
		s.JudgeReject()
	})
}

// DeductRequest is the judge's arbitrary penalty payload. Team -1 (or
// omitted) targets the acting team.
type DeductRequest struct {
	Amount float64 `json:"amount"`
	Team   *int    `json:"team,omitempty"`
}

// JudgeDeduct handles POST /v1/sessions/{id}/judge/deduct.
func (h *HTTPHandlers) JudgeDeduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if !h.authorizeJudge(w, r, session.ID) {
		return
	}
	var req DeductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Amount != 0.5 && req.Amount != 1 && req.Amount != 2 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "amount must be 0.5, 1 or 2", "amount")
		return
	}
	team := -1
	if req.Team != nil {
		team = *req.Team
		if team != 0 && team != 1 {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "team must be 0 or 1", "team")
			return
		}
	}
	session.JudgeDeduct(req.Amount, team)
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

// ListCategories handles GET /v1/categories.
func (h *HTTPHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respondJSON(w, http.StatusOK, h.catalog.List())
	case http.MethodPost:
		h.createCategory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (h *HTTPHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	cat, err := h.catalog.AddCustom(strings.TrimSpace(req.Name))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeCategoryCreationFailed, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, cat)
}

// mutate runs a no-payload transition and responds with the snapshot.
// Invalid transitions are silent no-ops per the error design, so the
// response is always the current state.
func (h *HTTPHandlers) mutate(w http.ResponseWriter, r *http.Request, fn func(*Session, *http.Request)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	fn(session, r)
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *HTTPHandlers) judgeMutate(w http.ResponseWriter, r *http.Request, fn func(*Session, *http.Request)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if !h.authorizeJudge(w, r, session.ID) {
		return
	}
	fn(session, r)
	h.respondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *HTTPHandlers) authorizeJudge(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "judge token required")
		return false
	}
	if err := h.manager.VerifyJudgeToken(token, sessionID); err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidJudgeToken, "judge token rejected")
		return false
	}
	return true
}

// session resolves the {id} path value to a live session.
func (h *HTTPHandlers) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "session id must be a UUID")
		return nil, false
	}
	session, ok := h.manager.Get(id)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("encode response failed")
	}
}

func (h *HTTPHandlers) broadcastSnapshot(sessionID uuid.UUID, snap Snapshot) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Warn().Err(err).Msg("marshal snapshot failed")
		return
	}
	h.hub.Broadcast(sessionID, ws.Message{Type: ws.TypeSnapshot, Payload: payload})
}

// ValidationError carries the offending field for 400 responses.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
