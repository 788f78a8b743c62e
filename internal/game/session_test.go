package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"
)

type stubSource struct {
	mu             sync.Mutex
	perCategory    map[string][]question.Question
	fallback       bool
	requestedCount int
	swapQuestion   question.Question
	swapOK         bool
	onSwap         func()
}

func (s *stubSource) Generate(_ context.Context, used *question.UsedSet, categoryID string, count, _ int, _ string) ([]question.Question, bool) {
	s.mu.Lock()
	s.requestedCount = count
	qs := s.perCategory[categoryID]
	s.mu.Unlock()
	if len(qs) > count {
		qs = qs[:count]
	}
	for _, q := range qs {
		used.Mark(q.Prompt)
	}
	return qs, s.fallback
}

func (s *stubSource) Swap(_ context.Context, used *question.UsedSet, _ string, _ question.Question, _ int) (question.Question, bool) {
	if s.onSwap != nil {
		s.onSwap()
	}
	if s.swapOK {
		used.Mark(s.swapQuestion.Prompt)
	}
	return s.swapQuestion, s.swapOK
}

func testQuestions(n int) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			Prompt:  fmt.Sprintf("Question %d?", i+1),
			Options: []string{"Alpha", "Beta", "Gamma", "Delta"},
			Answer:  "Alpha",
		}
	}
	return qs
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(uuid.New(), &stubSource{}, DefaultRulesConfig(), zerolog.Nop())
	s.tickInterval = time.Hour
	return s
}

// startedSession configures the session and starts it with n manual
// questions so tests control exactly what is asked.
func startedSession(t *testing.T, n int, features Features) *Session {
	t.Helper()
	s := newTestSession(t)
	require.NoError(t, s.Configure(Setup{
		TeamNames:       [2]string{"Red", "Blue"},
		QuestionCount:   n,
		Difficulty:      50,
		TimePerQuestion: 30,
		Categories:      []string{"general"},
	}, features))
	require.NoError(t, s.StartGameWithQuestions(testQuestions(n)))
	return s
}

func TestConfigureValidation(t *testing.T) {
	s := newTestSession(t)

	assert.Error(t, s.Configure(Setup{QuestionCount: 0, Difficulty: 50, TimePerQuestion: 30}, DefaultFeatures()))
	assert.Error(t, s.Configure(Setup{QuestionCount: 5, Difficulty: 0, TimePerQuestion: 30}, DefaultFeatures()))
	assert.Error(t, s.Configure(Setup{QuestionCount: 5, Difficulty: 101, TimePerQuestion: 30}, DefaultFeatures()))
	assert.Error(t, s.Configure(Setup{QuestionCount: 5, Difficulty: 50, TimePerQuestion: 0}, DefaultFeatures()))
	assert.NoError(t, s.Configure(Setup{QuestionCount: 5, Difficulty: 50, TimePerQuestion: 30}, DefaultFeatures()))
}

func TestConfigureRejectedOncePlaying(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	err := s.Configure(Setup{QuestionCount: 5, Difficulty: 50, TimePerQuestion: 30}, DefaultFeatures())
	assert.Error(t, err)
}

func TestStartGameWithQuestionsRejectsInvalidRecords(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Configure(Setup{QuestionCount: 1, Difficulty: 50, TimePerQuestion: 30}, DefaultFeatures()))

	bad := testQuestions(1)
	bad[0].Answer = "Omega"
	assert.Error(t, s.StartGameWithQuestions(bad))
	assert.Error(t, s.StartGameWithQuestions(nil))
	assert.Equal(t, StateSetup, s.Snapshot().State)
}

func TestStartGameSplitsCountAcrossCategories(t *testing.T) {
	source := &stubSource{perCategory: map[string][]question.Question{}}
	for _, cat := range []string{"general", "science", "history"} {
		qs := make([]question.Question, 4)
		for i := range qs {
			qs[i] = question.Question{
				Prompt:  fmt.Sprintf("%s %d?", cat, i),
				Options: []string{"A", "B", "C", "D"},
				Answer:  "A",
			}
		}
		source.perCategory[cat] = qs
	}
	s := NewSession(uuid.New(), source, DefaultRulesConfig(), zerolog.Nop())
	require.NoError(t, s.Configure(Setup{
		QuestionCount:   10,
		Difficulty:      50,
		TimePerQuestion: 30,
		Categories:      []string{"general", "science", "history"},
	}, DefaultFeatures()))

	require.NoError(t, s.StartGame(context.Background()))

	assert.Equal(t, 4, source.requestedCount, "ceil(10/3) per category")
	snap := s.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 10, snap.QuestionCount)
	assert.Equal(t, 0, snap.ActiveTeam)
}

func TestStartGameFailsWhenEveryCategoryComesBackEmpty(t *testing.T) {
	source := &stubSource{perCategory: map[string][]question.Question{}}
	s := NewSession(uuid.New(), source, DefaultRulesConfig(), zerolog.Nop())
	require.NoError(t, s.Configure(Setup{
		QuestionCount:   4,
		Difficulty:      50,
		TimePerQuestion: 30,
		Categories:      []string{"general"},
	}, DefaultFeatures()))

	assert.Error(t, s.StartGame(context.Background()))
	assert.Equal(t, StateSetup, s.Snapshot().State)
}

func TestSelectAnswerAwardsBasePlusTimeBonus(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	// Full 30 of 30 seconds remaining: bonus 0.5, total 1.5.
	s.SelectAnswer("Alpha")

	snap := s.Snapshot()
	assert.Equal(t, 1.5, snap.Teams[0].Score)
	assert.Equal(t, 0.5, snap.Teams[0].BonusPoints)
	assert.Equal(t, 1, snap.Teams[0].Streak)
	assert.True(t, snap.Revealed)
}

func TestSelectAnswerIsIdempotentAfterReveal(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.SelectAnswer("Alpha")
	first := s.Snapshot().Teams[0].Score
	s.SelectAnswer("Alpha")
	s.SelectAnswer("Beta")

	assert.Equal(t, first, s.Snapshot().Teams[0].Score)
}

func TestIncorrectAnswerResetsStreakAndAwardsNothing(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	s.teams[0].Streak = 2

	s.SelectAnswer("Beta")

	snap := s.Snapshot()
	assert.Equal(t, 0.0, snap.Teams[0].Score)
	assert.Equal(t, 0, snap.Teams[0].Streak)
	assert.True(t, snap.Revealed)
}

func TestStreakMultiplierKicksInAtThreshold(t *testing.T) {
	features := DefaultFeatures()
	features.TimeBonus = false
	s := startedSession(t, 2, features)
	s.teams[0].Streak = 2

	s.SelectAnswer("Alpha")

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Teams[0].Streak)
	assert.Equal(t, 1.5, snap.Teams[0].Score, "1 point * 1.5 streak multiplier")
}

func TestStreakMultiplierInactiveBelowThreshold(t *testing.T) {
	features := DefaultFeatures()
	features.TimeBonus = false
	s := startedSession(t, 2, features)
	s.teams[0].Streak = 1

	s.SelectAnswer("Alpha")

	assert.Equal(t, 1.0, s.Snapshot().Teams[0].Score)
}

func TestScoresStayRoundedToOneDecimal(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	s.teams[0].Streak = 2
	s.timer = 20 // bonus round1(20/30*0.5) = 0.3

	s.SelectAnswer("Alpha")

	// (1 + 0.3) * 1.5 = 1.95, rounded to 2.0.
	score := s.Snapshot().Teams[0].Score
	assert.Equal(t, 2.0, score)
	assert.Equal(t, score, round1(score))
}

func TestDoublePointsArmsOnceAndConsumesOnCorrectAnswer(t *testing.T) {
	features := DefaultFeatures()
	features.TimeBonus = false
	s := startedSession(t, 2, features)

	s.UsePowerUp(PowerUpDoublePoints)
	s.UsePowerUp(PowerUpDoublePoints) // already armed, must not burn a charge

	snap := s.Snapshot()
	assert.True(t, snap.Teams[0].DoubleArmed)
	assert.Equal(t, 1, snap.Teams[0].PowerUps.DoublePoints)

	s.SelectAnswer("Alpha")
	snap = s.Snapshot()
	assert.Equal(t, 2.0, snap.Teams[0].Score)
	assert.False(t, snap.Teams[0].DoubleArmed)
}

func TestExtraTimeRequiresRunningTimer(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.UsePowerUp(PowerUpExtraTime)
	snap := s.Snapshot()
	assert.Equal(t, 30, snap.Timer)
	assert.Equal(t, 2, snap.Teams[0].PowerUps.ExtraTime)

	s.StartTimer()
	s.UsePowerUp(PowerUpExtraTime)
	snap = s.Snapshot()
	assert.Equal(t, 45, snap.Timer)
	assert.Equal(t, 1, snap.Teams[0].PowerUps.ExtraTime)
	assert.Equal(t, ViewQuestion, snap.View)

	s.Close()
}

func TestExtraTimeNoopWhenExhausted(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	s.teams[0].PowerUps.ExtraTime = 0

	s.StartTimer()
	s.UsePowerUp(PowerUpExtraTime)

	assert.Equal(t, 30, s.Snapshot().Timer)
	s.Close()
}

func TestSkipQuestionAdvancesTurn(t *testing.T) {
	s := startedSession(t, 3, DefaultFeatures())

	s.UsePowerUp(PowerUpSkipQuestion)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.Equal(t, 1, snap.ActiveTeam)
	assert.Equal(t, 1, snap.Teams[0].PowerUps.SkipQuestion)
	assert.Equal(t, 30, snap.Timer)
}

func TestPowerUpsDisabledByFeatureToggle(t *testing.T) {
	features := DefaultFeatures()
	features.PowerUps = false
	s := startedSession(t, 2, features)

	s.UsePowerUp(PowerUpDoublePoints)

	snap := s.Snapshot()
	assert.False(t, snap.Teams[0].DoubleArmed)
	assert.Equal(t, 2, snap.Teams[0].PowerUps.DoublePoints)
}

func TestJokerExcludesTwoDistinctIncorrectOptions(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.UseJoker()

	snap := s.Snapshot()
	assert.Equal(t, []string{"Beta", "Gamma"}, snap.ExcludedOptions)
	assert.True(t, snap.JokerUsed)
	assert.Equal(t, 1, snap.Teams[0].Jokers)

	// Excluded options cannot be selected.
	s.SelectAnswer("Beta")
	assert.False(t, s.Snapshot().Revealed)

	// One joker per question.
	s.UseJoker()
	assert.Equal(t, 1, s.Snapshot().Teams[0].Jokers)
}

func TestJokerNoopWithFewerThanTwoDistinctIncorrectOptions(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Configure(Setup{QuestionCount: 1, Difficulty: 50, TimePerQuestion: 30}, DefaultFeatures()))
	require.NoError(t, s.StartGameWithQuestions([]question.Question{{
		Prompt:  "Repeated options?",
		Options: []string{"Same", "Same", "Same", "Right"},
		Answer:  "Right",
	}}))

	s.UseJoker()

	snap := s.Snapshot()
	assert.Empty(t, snap.ExcludedOptions)
	assert.Equal(t, 2, snap.Teams[0].Jokers)
}

func TestJudgeApproveGrantsFlatPoint(t *testing.T) {
	features := DefaultFeatures()
	features.JudgeOverride = true
	s := startedSession(t, 2, features)

	s.JudgeApprove() // before reveal, no-op
	assert.Equal(t, 0.0, s.Snapshot().Teams[0].Score)

	s.SelectAnswer("Beta") // incorrect, revealed
	assert.Equal(t, ViewJudge, s.Snapshot().View)

	s.JudgeApprove()
	assert.Equal(t, 1.0, s.Snapshot().Teams[0].Score)
}

func TestJudgeRejectReversesAwardedPointsOnly(t *testing.T) {
	features := DefaultFeatures()
	features.JudgeOverride = true
	s := startedSession(t, 2, features)

	s.SelectAnswer("Alpha") // 1 + 0.5 time bonus
	require.Equal(t, 1.5, s.Snapshot().Teams[0].Score)

	s.JudgeReject()
	snap := s.Snapshot()
	assert.Equal(t, 0.0, snap.Teams[0].Score)
	assert.Equal(t, 0.0, snap.Teams[0].BonusPoints)

	// A second reject has nothing left to reverse.
	s.JudgeReject()
	assert.Equal(t, 0.0, s.Snapshot().Teams[0].Score)
}

func TestJudgeRejectNoopWithoutAward(t *testing.T) {
	features := DefaultFeatures()
	features.JudgeOverride = true
	s := startedSession(t, 2, features)
	s.teams[0].Score = 3

	s.SelectAnswer("Beta") // incorrect, nothing awarded
	s.JudgeReject()

	assert.Equal(t, 3.0, s.Snapshot().Teams[0].Score)
}

func TestJudgeDeductFloorsAtZero(t *testing.T) {
	features := DefaultFeatures()
	features.JudgeOverride = true
	s := startedSession(t, 2, features)
	s.teams[1].Score = 0.5

	s.JudgeDeduct(2, 1)
	assert.Equal(t, 0.0, s.Snapshot().Teams[1].Score)

	// Negative team index targets the acting team.
	s.teams[0].Score = 2
	s.JudgeDeduct(0.5, -1)
	assert.Equal(t, 1.5, s.Snapshot().Teams[0].Score)
}

func TestTimerCountdownRevealsAtZero(t *testing.T) {
	features := DefaultFeatures()
	features.JudgeOverride = true
	s := newTestSession(t)
	require.NoError(t, s.Configure(Setup{QuestionCount: 1, Difficulty: 50, TimePerQuestion: 2}, features))
	require.NoError(t, s.StartGameWithQuestions(testQuestions(1)))

	s.StartTimer()
	assert.True(t, s.tick())
	assert.Equal(t, 1, s.Snapshot().Timer)

	assert.False(t, s.tick())
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Timer)
	assert.False(t, snap.TimerRunning)
	assert.True(t, snap.Revealed)
	assert.Equal(t, ViewJudge, snap.View)

	// No answer can land after time expired.
	s.SelectAnswer("Alpha")
	assert.Equal(t, 0.0, s.Snapshot().Teams[0].Score)
	s.Close()
}

func TestStartTimerIgnoredWhileRunningOrRevealed(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.StartTimer()
	assert.True(t, s.Snapshot().TimerRunning)
	s.StartTimer() // no second goroutine, still running
	assert.True(t, s.Snapshot().TimerRunning)

	s.SelectAnswer("Alpha")
	assert.False(t, s.Snapshot().TimerRunning)
	s.StartTimer()
	assert.False(t, s.Snapshot().TimerRunning)
	s.Close()
}

func TestNextQuestionAlternatesTeamsAndResetsTurnState(t *testing.T) {
	s := startedSession(t, 3, DefaultFeatures())
	s.SelectAnswer("Alpha")
	s.UseJoker() // revealed, no-op

	s.NextQuestion()

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.Equal(t, 1, snap.ActiveTeam)
	assert.Equal(t, 30, snap.Timer)
	assert.False(t, snap.Revealed)
	assert.Empty(t, snap.ExcludedOptions)
	assert.Equal(t, ViewTeams, snap.View)
}

func TestLastQuestionMovesToResultsWithLosingTeam(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.SelectAnswer("Alpha") // team 0 scores 1.5
	s.NextQuestion()
	s.SelectAnswer("Beta") // team 1 misses
	s.NextQuestion()

	snap := s.Snapshot()
	assert.Equal(t, StateResults, snap.State)
	assert.Equal(t, 1, snap.LosingTeam)
	assert.Nil(t, snap.CurrentQuestion)
}

func TestTiedGameHasNoLosingTeam(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	s.SelectAnswer("Beta")
	s.NextQuestion()
	s.SelectAnswer("Beta")
	s.NextQuestion()

	snap := s.Snapshot()
	assert.Equal(t, StateResults, snap.State)
	assert.Equal(t, NoLosingTeam, snap.LosingTeam)
}

func TestRefreshQuestionReplacesCurrent(t *testing.T) {
	source := &stubSource{
		swapQuestion: question.Question{
			Prompt:  "Fresh?",
			Options: []string{"A", "B", "C", "D"},
			Answer:  "A",
		},
		swapOK: true,
	}
	s := NewSession(uuid.New(), source, DefaultRulesConfig(), zerolog.Nop())
	s.tickInterval = time.Hour
	require.NoError(t, s.Configure(Setup{
		QuestionCount:   2,
		Difficulty:      50,
		TimePerQuestion: 30,
		Categories:      []string{"general"},
	}, DefaultFeatures()))
	require.NoError(t, s.StartGameWithQuestions(testQuestions(2)))

	require.True(t, s.RefreshQuestion(context.Background()))

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, "Fresh?", snap.CurrentQuestion.Prompt)
	assert.Equal(t, 30, snap.Timer)
}

func TestRefreshQuestionDiscardsStaleReplacement(t *testing.T) {
	source := &stubSource{
		swapQuestion: question.Question{
			Prompt:  "Too late?",
			Options: []string{"A", "B", "C", "D"},
			Answer:  "A",
		},
		swapOK: true,
	}
	s := NewSession(uuid.New(), source, DefaultRulesConfig(), zerolog.Nop())
	s.tickInterval = time.Hour
	require.NoError(t, s.Configure(Setup{
		QuestionCount:   2,
		Difficulty:      50,
		TimePerQuestion: 30,
		Categories:      []string{"general"},
	}, DefaultFeatures()))
	require.NoError(t, s.StartGameWithQuestions(testQuestions(2)))

	// The game resets while the swap is still in flight.
	source.onSwap = func() { s.ResetGame() }

	assert.False(t, s.RefreshQuestion(context.Background()))
	assert.Equal(t, StateSetup, s.Snapshot().State)
}

func TestRefreshQuestionReportsNoReplacement(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	assert.False(t, s.RefreshQuestion(context.Background()))
	assert.Equal(t, "Question 1?", s.Snapshot().CurrentQuestion.Prompt)
}

func TestResetGameReturnsToSetupAndClearsUsedQuestions(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())
	s.SelectAnswer("Alpha")

	s.ResetGame()

	snap := s.Snapshot()
	assert.Equal(t, StateSetup, snap.State)
	assert.Equal(t, [2]Team{}, snap.Teams)
	assert.Equal(t, NoLosingTeam, snap.LosingTeam)
	assert.Equal(t, 0, s.used.Len())

	// The same questions are eligible again.
	require.NoError(t, s.StartGameWithQuestions(testQuestions(2)))
	assert.Equal(t, StatePlaying, s.Snapshot().State)
}

func TestSnapshotHidesAnswerUntilReveal(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentQuestion)
	assert.Empty(t, snap.CurrentQuestion.Answer)

	s.SelectAnswer("Alpha")
	snap = s.Snapshot()
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, "Alpha", snap.CurrentQuestion.Answer)
}

func TestNotifyHookReceivesSnapshotsAfterMutations(t *testing.T) {
	s := startedSession(t, 2, DefaultFeatures())

	var mu sync.Mutex
	var got []Snapshot
	s.SetNotify(func(snap Snapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})

	s.SelectAnswer("Alpha")
	s.NextQuestion()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.True(t, got[0].Revealed)
	assert.Equal(t, 1, got[1].QuestionIndex)
}
