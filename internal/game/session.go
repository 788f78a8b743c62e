package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"
)

// QuestionSource is the provider surface the session depends on.
// Implemented by question.Provider.
type QuestionSource interface {
	Generate(ctx context.Context, used *question.UsedSet, categoryID string, count, difficulty int, overrideName string) ([]question.Question, bool)
	Swap(ctx context.Context, used *question.UsedSet, categoryID string, current question.Question, difficulty int) (question.Question, bool)
}

// Session owns all state for one two-team game. Every transition runs
// under the session mutex; invalid transitions are silent no-ops so
// rapid repeated input (double clicks, duplicate requests) cannot
// corrupt scoring. The epoch counter rejects results of suspended
// provider calls that resolve after the player has moved on.
type Session struct {
	ID uuid.UUID

	mu     sync.Mutex
	logger zerolog.Logger
	source QuestionSource
	used   *question.UsedSet
	rules  RulesConfig
	rng    *rand.Rand
	notify func(Snapshot)

	state    State
	view     View
	setup    Setup
	features Features
	teams    [2]Team

	questions  []question.Question
	qIndex     int
	activeTeam int
	losingTeam int

	timer        int
	timerRunning bool
	timerStop    chan struct{}
	tickInterval time.Duration

	touched          time.Time
	revealed         bool
	excluded         []string
	jokerUsed        bool
	awarded          bool
	grantedTimeBonus float64
	refreshBusy      bool
	usedFallback     bool

	epoch uint64
}

// NewSession creates a session in the setup state.
func NewSession(id uuid.UUID, source QuestionSource, rules RulesConfig, logger zerolog.Logger) *Session {
	return &Session{
		ID:           id,
		logger:       logger.With().Str("component", "game_session").Str("session_id", id.String()).Logger(),
		source:       source,
		used:         question.NewUsedSet(),
		rules:        rules,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		state:        StateSetup,
		view:         ViewTeams,
		features:     DefaultFeatures(),
		losingTeam:   NoLosingTeam,
		tickInterval: time.Second,
		touched:      time.Now(),
	}
}

// SetNotify registers the snapshot hook invoked after every mutation.
func (s *Session) SetNotify(fn func(Snapshot)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Configure captures setup and feature toggles. Only valid before the
// game starts.
func (s *Session) Configure(setup Setup, features Features) error {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StateSetup {
		return fmt.Errorf("game already started")
	}
	if setup.QuestionCount <= 0 {
		return fmt.Errorf("question count must be positive")
	}
	if setup.Difficulty < 1 || setup.Difficulty > 100 {
		return fmt.Errorf("difficulty must be between 1 and 100")
	}
	if setup.TimePerQuestion <= 0 {
		return fmt.Errorf("time per question must be positive")
	}
	s.setup = setup
	s.features = features
	return nil
}

// StartGame generates questions for every selected category, shuffles
// them and flips the session to playing. When every category yields
// zero questions the session stays in setup and an error is returned.
func (s *Session) StartGame(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateSetup {
		s.mu.Unlock()
		return fmt.Errorf("game already started")
	}
	setup := s.setup
	s.mu.Unlock()

	if len(setup.Categories) == 0 {
		return fmt.Errorf("at least one category must be selected")
	}
	if setup.QuestionCount <= 0 {
		return fmt.Errorf("question count must be positive")
	}

	// Proportional split: ceil(total / categories) per category.
	perCategory := (setup.QuestionCount + len(setup.Categories) - 1) / len(setup.Categories)

	results := make([][]question.Question, len(setup.Categories))
	fallbacks := make([]bool, len(setup.Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range setup.Categories {
		g.Go(func() error {
			qs, fb := s.source.Generate(gctx, s.used, cat, perCategory, setup.Difficulty, "")
			results[i] = qs
			fallbacks[i] = fb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var pool []question.Question
	usedFallback := false
	for i, qs := range results {
		pool = append(pool, qs...)
		usedFallback = usedFallback || fallbacks[i]
	}
	if len(pool) == 0 {
		return fmt.Errorf("question generation failed for all categories")
	}
	if len(pool) > setup.QuestionCount {
		pool = pool[:setup.QuestionCount]
	}

	s.mu.Lock()
	defer s.unlockAndNotify()
	if s.state != StateSetup {
		// A concurrent start won the race; discard this pool.
		return fmt.Errorf("game already started")
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.beginPlayingLocked(pool, usedFallback)
	return nil
}

// StartGameWithQuestions starts play with caller-authored questions,
// bypassing the provider entirely. Records violating the options/answer
// invariant are rejected.
func (s *Session) StartGameWithQuestions(qs []question.Question) error {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StateSetup {
		return fmt.Errorf("game already started")
	}
	if len(qs) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	pool := make([]question.Question, 0, len(qs))
	for i, q := range qs {
		if !q.Valid() {
			return fmt.Errorf("question %d: correct answer must be one of exactly %d options", i+1, question.OptionCount)
		}
		q.Source = question.SourceManual
		s.used.Mark(q.Prompt)
		pool = append(pool, q)
	}
	if s.setup.QuestionCount <= 0 || s.setup.QuestionCount > len(pool) {
		s.setup.QuestionCount = len(pool)
	}
	pool = pool[:s.setup.QuestionCount]
	s.beginPlayingLocked(pool, false)
	return nil
}

func (s *Session) beginPlayingLocked(pool []question.Question, usedFallback bool) {
	for i := range s.teams {
		s.teams[i] = Team{
			Name:     s.setup.TeamNames[i],
			Jokers:   s.rules.InitialJokers,
			PowerUps: s.rules.InitialPowerUps,
		}
		if s.teams[i].Name == "" {
			s.teams[i].Name = fmt.Sprintf("Team %d", i+1)
		}
	}
	s.questions = pool
	s.qIndex = 0
	s.activeTeam = 0
	s.losingTeam = NoLosingTeam
	s.state = StatePlaying
	s.view = ViewTeams
	s.usedFallback = usedFallback
	s.resetTurnLocked()
	s.epoch++

	s.logger.Info().
		Int("questions", len(pool)).
		Bool("used_fallback", usedFallback).
		Msg("game started")
}

// resetTurnLocked restores per-question state for the upcoming question.
func (s *Session) resetTurnLocked() {
	s.stopTimerLocked()
	s.timer = s.setup.TimePerQuestion
	s.revealed = false
	s.excluded = nil
	s.jokerUsed = false
	s.awarded = false
	s.grantedTimeBonus = 0
	s.refreshBusy = false
}

// StartTimer begins the countdown for the current question. The timer
// never auto-starts; this is always an explicit player action.
func (s *Session) StartTimer() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StatePlaying || s.revealed || s.timerRunning || s.timer <= 0 {
		return
	}
	s.timerRunning = true
	s.view = ViewQuestion

	stop := make(chan struct{})
	s.timerStop = stop
	go s.runTimer(stop)
}

func (s *Session) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick decrements the countdown once. Returns false when the loop
// should end. Reaching zero stops the timer and forces the reveal in
// the same step.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StatePlaying || s.revealed || !s.timerRunning || s.timer <= 0 {
		return false
	}
	s.timer--
	if s.timer == 0 {
		s.timerRunning = false
		s.timerStop = nil
		s.revealed = true
		if s.features.JudgeOverride {
			s.view = ViewJudge
		}
		s.logger.Debug().Int("question", s.qIndex).Msg("time expired")
		return false
	}
	return true
}

func (s *Session) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
	s.timerRunning = false
}

// SelectAnswer reveals the answer and scores the acting team. Valid only
// while playing, with time left and the answer not yet revealed; any
// later call for the same question is a no-op.
func (s *Session) SelectAnswer(option string) {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StatePlaying || s.revealed || s.timer <= 0 {
		return
	}
	for _, ex := range s.excluded {
		if option == ex {
			return
		}
	}

	q := s.questions[s.qIndex]
	remaining := s.timer
	s.stopTimerLocked()
	s.revealed = true
	if s.features.JudgeOverride {
		s.view = ViewJudge
	}

	team := &s.teams[s.activeTeam]
	if option != q.Answer {
		team.Streak = 0
		s.logger.Debug().Int("team", s.activeTeam).Msg("incorrect answer")
		return
	}

	team.Streak++

	bonus := 0.0
	if s.features.TimeBonus {
		bonus = s.rules.timeBonus(remaining, s.setup.TimePerQuestion)
	}
	multiplier := 1.0
	if s.features.StreakBonus && team.Streak >= s.rules.StreakThreshold {
		multiplier *= s.rules.StreakMultiplier
	}
	if team.DoubleArmed {
		multiplier *= s.rules.DoublePointsMultiplier
		team.DoubleArmed = false
	}

	points := round1((s.rules.BasePoints + bonus) * multiplier)
	team.Score = round1(team.Score + points)
	team.BonusPoints = round1(team.BonusPoints + bonus)
	s.awarded = true
	s.grantedTimeBonus = bonus

	s.logger.Debug().
		Int("team", s.activeTeam).
		Float64("points", points).
		Float64("time_bonus", bonus).
		Int("streak", team.Streak).
		Msg("correct answer")
}

// UseJoker eliminates the first two distinct incorrect options. Usable
// once per question while unrevealed; a no-op when fewer than two
// distinct wrong options exist or the team has no jokers left.
func (s *Session) UseJoker() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StatePlaying || s.revealed || s.jokerUsed {
		return
	}
	team := &s.teams[s.activeTeam]
	if team.Jokers <= 0 {
		return
	}

	q := s.questions[s.qIndex]
	var incorrect []string
	seen := make(map[string]struct{})
	for _, opt := range q.Options {
		if opt == q.Answer {
			continue
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		incorrect = append(incorrect, opt)
	}
	if len(incorrect) < 2 {
		return
	}

	s.excluded = incorrect[:2]
	s.jokerUsed = true
	team.Jokers--
}

// UsePowerUp consumes one charge of the named power-up for the acting
// team. Exhausted counters and post-reveal calls are no-ops.
func (s *Session) UsePowerUp(kind string) {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if !s.features.PowerUps || s.state != StatePlaying || s.revealed {
		return
	}
	team := &s.teams[s.activeTeam]

	switch kind {
	case PowerUpExtraTime:
		if team.PowerUps.ExtraTime <= 0 || !s.timerRunning {
			return
		}
		team.PowerUps.ExtraTime--
		s.timer += s.rules.ExtraTimeSeconds

	case PowerUpDoublePoints:
		if team.PowerUps.DoublePoints <= 0 || team.DoubleArmed {
			return
		}
		team.PowerUps.DoublePoints--
		team.DoubleArmed = true

	case PowerUpSkipQuestion:
		if team.PowerUps.SkipQuestion <= 0 {
			return
		}
		team.PowerUps.SkipQuestion--
		s.advanceLocked()
	}
}

// JudgeApprove grants a flat point regardless of the original outcome.
func (s *Session) JudgeApprove() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if !s.features.JudgeOverride || s.state != StatePlaying || !s.revealed {
		return
	}
	team := &s.teams[s.activeTeam]
	team.Score = round1(team.Score + s.rules.JudgeApprovePoints)
}

// JudgeReject reverses the points granted by the answer-selection path
// for this question. A no-op when nothing was awarded.
func (s *Session) JudgeReject() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if !s.features.JudgeOverride || s.state != StatePlaying || !s.revealed || !s.awarded {
		return
	}
	team := &s.teams[s.activeTeam]
	team.Score = floorZero(round1(team.Score - (s.rules.JudgeRejectPoints + s.grantedTimeBonus)))
	team.BonusPoints = floorZero(round1(team.BonusPoints - s.grantedTimeBonus))
	s.awarded = false
	s.grantedTimeBonus = 0
}

// JudgeDeduct subtracts a judge-chosen penalty from a team, floored at
// zero. teamIndex < 0 targets the acting team.
func (s *Session) JudgeDeduct(amount float64, teamIndex int) {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if !s.features.JudgeOverride || s.state != StatePlaying || amount <= 0 {
		return
	}
	if teamIndex < 0 {
		teamIndex = s.activeTeam
	}
	if teamIndex > 1 {
		return
	}
	team := &s.teams[teamIndex]
	team.Score = floorZero(round1(team.Score - amount))
}

// NextQuestion completes the current turn. After the last question the
// session moves to results and, if the scores differ, the lower-scoring
// team is designated for the punishment flow.
func (s *Session) NextQuestion() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	if s.state != StatePlaying {
		return
	}
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	if s.qIndex >= len(s.questions)-1 {
		s.stopTimerLocked()
		s.state = StateResults
		s.losingTeam = NoLosingTeam
		switch {
		case s.teams[0].Score < s.teams[1].Score:
			s.losingTeam = 0
		case s.teams[1].Score < s.teams[0].Score:
			s.losingTeam = 1
		}
		s.epoch++
		s.logger.Info().
			Float64("score_0", s.teams[0].Score).
			Float64("score_1", s.teams[1].Score).
			Int("losing_team", s.losingTeam).
			Msg("game finished")
		return
	}

	s.activeTeam = 1 - s.activeTeam
	s.qIndex++
	s.view = ViewTeams
	s.resetTurnLocked()
	s.epoch++
}

// RefreshQuestion swaps the current question for an unused one from the
// first selected category. Returns false when no replacement is
// available, leaving the current question untouched. A busy flag blocks
// concurrent refreshes and an epoch check discards replacements that
// arrive after the session moved on.
func (s *Session) RefreshQuestion(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StatePlaying || s.revealed || s.refreshBusy || len(s.setup.Categories) == 0 {
		s.mu.Unlock()
		return false
	}
	s.refreshBusy = true
	current := s.questions[s.qIndex]
	categoryID := s.setup.Categories[0]
	difficulty := s.setup.Difficulty
	epoch := s.epoch
	s.mu.Unlock()

	replacement, ok := s.source.Swap(ctx, s.used, categoryID, current, difficulty)

	s.mu.Lock()
	defer s.unlockAndNotify()
	s.refreshBusy = false
	if !ok {
		return false
	}
	if s.state != StatePlaying || s.epoch != epoch {
		// The game was reset or the turn advanced while the swap was in
		// flight; the stale replacement must not be applied.
		return false
	}
	s.questions[s.qIndex] = replacement
	s.resetTurnLocked()
	return true
}

// ResetGame clears used-question tracking and returns to setup.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.unlockAndNotify()

	s.stopTimerLocked()
	s.used.Reset()
	s.questions = nil
	s.qIndex = 0
	s.activeTeam = 0
	s.losingTeam = NoLosingTeam
	s.teams = [2]Team{}
	s.state = StateSetup
	s.view = ViewTeams
	s.usedFallback = false
	s.revealed = false
	s.excluded = nil
	s.jokerUsed = false
	s.awarded = false
	s.grantedTimeBonus = 0
	s.refreshBusy = false
	s.timer = 0
	s.epoch++
	s.logger.Info().Msg("game reset")
}

// LastTouched returns the time of the most recent mutation.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Close stops the timer goroutine. The session must not be used after.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Snapshot returns the client-visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       s.ID.String(),
		State:           s.state,
		View:            s.view,
		Setup:           s.setup,
		Features:        s.features,
		Teams:           s.teams,
		ActiveTeam:      s.activeTeam,
		QuestionIndex:   s.qIndex,
		QuestionCount:   len(s.questions),
		Timer:           s.timer,
		TimerRunning:    s.timerRunning,
		Revealed:        s.revealed,
		ExcludedOptions: append([]string(nil), s.excluded...),
		JokerUsed:       s.jokerUsed,
		LosingTeam:      s.losingTeam,
		UsedFallback:    s.usedFallback,
	}
	if s.state == StatePlaying && s.qIndex < len(s.questions) {
		q := s.questions[s.qIndex]
		if !s.revealed {
			q.Answer = "" // hidden until reveal
		}
		snap.CurrentQuestion = &q
	}
	return snap
}

// unlockAndNotify publishes a snapshot to the notify hook after
// releasing the session lock. Used as `defer s.unlockAndNotify()` right
// after locking in every mutating method.
func (s *Session) unlockAndNotify() {
	s.touched = time.Now()
	notify := s.notify
	var snap Snapshot
	if notify != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
