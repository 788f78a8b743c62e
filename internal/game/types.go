package game

import "github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"

// State is the outer game lifecycle.
type State string

const (
	StateSetup   State = "setup"
	StatePlaying State = "playing"
	StateResults State = "results"
)

// View is the per-turn sub-state shown to clients.
type View string

const (
	ViewTeams    View = "teams"
	ViewQuestion View = "question"
	ViewJudge    View = "judge"
)

// Power-up kinds.
const (
	PowerUpExtraTime    = "extraTime"
	PowerUpDoublePoints = "doublePoints"
	PowerUpSkipQuestion = "skipQuestion"
)

// NoLosingTeam marks a tied game in Snapshot.LosingTeam.
const NoLosingTeam = -1

// PowerUps holds a team's remaining charges.
type PowerUps struct {
	ExtraTime    int `json:"extraTime"`
	DoublePoints int `json:"doublePoints"`
	SkipQuestion int `json:"skipQuestion"`
}

// Team is one of the two sides of a session. Scores are fractional,
// always rounded to one decimal and never negative.
type Team struct {
	Name         string   `json:"name"`
	Score        float64  `json:"score"`
	Streak       int      `json:"streak"`
	BonusPoints  float64  `json:"bonusPoints"`
	Jokers       int      `json:"jokers"`
	PowerUps     PowerUps `json:"powerUps"`
	DoubleArmed  bool     `json:"doubleArmed"`
}

// Setup is the configuration snapshot captured at game start. Read-only
// while playing.
type Setup struct {
	TeamNames       [2]string `json:"teamNames"`
	JudgeName       string    `json:"judgeName"`
	QuestionCount   int       `json:"questionCount"`
	Difficulty      int       `json:"difficulty"` // 1-100
	TimePerQuestion int       `json:"timePerQuestion"` // seconds
	Categories      []string  `json:"categories"`
}

// Features gates optional scoring and UI behavior. Mutable only during setup.
type Features struct {
	StreakBonus   bool `json:"streakBonus"`
	TimeBonus     bool `json:"timeBonus"`
	Confetti      bool `json:"confetti"`
	JudgeOverride bool `json:"judgeOverride"`
	PowerUps      bool `json:"powerUps"`
}

// DefaultFeatures enables everything except the judge, matching a
// casual party setup.
func DefaultFeatures() Features {
	return Features{
		StreakBonus:   true,
		TimeBonus:     true,
		Confetti:      true,
		JudgeOverride: false,
		PowerUps:      true,
	}
}

// Snapshot is the full client-visible session state, broadcast after
// every mutation. The current question's answer is omitted until the
// reveal.
type Snapshot struct {
	SessionID       string             `json:"sessionId"`
	State           State              `json:"state"`
	View            View               `json:"view"`
	Setup           Setup              `json:"setup"`
	Features        Features           `json:"features"`
	Teams           [2]Team            `json:"teams"`
	ActiveTeam      int                `json:"activeTeam"`
	QuestionIndex   int                `json:"questionIndex"`
	QuestionCount   int                `json:"questionCount"`
	CurrentQuestion *question.Question `json:"currentQuestion,omitempty"`
	Timer           int                `json:"timer"`
	TimerRunning    bool               `json:"timerRunning"`
	Revealed        bool               `json:"revealed"`
	ExcludedOptions []string           `json:"excludedOptions"`
	JokerUsed       bool               `json:"jokerUsed"`
	LosingTeam      int                `json:"losingTeam"` // -1 when tied or not finished
	UsedFallback    bool               `json:"usedFallback"`
}
