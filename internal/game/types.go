package game

import (
	"errors"
)

type Phase string

const (
	PhaseLobby    Phase = "Lobby"
	PhaseQuestion Phase = "Question"
	PhaseResults  Phase = "Results"
	PhaseOver     Phase = "Over"
)

// MaxPlayers caps a room's roster.
const MaxPlayers = 18

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrGameNotStarted = errors.New("game not started")
	ErrGameStarted    = errors.New("game already started")
	ErrGameOver       = errors.New("game is over")
	ErrRoomFull       = errors.New("room is full")
	ErrEmptyName      = errors.New("empty name")
	ErrNotInRoom      = errors.New("not in room")
)

// Config holds the admin's choices at room creation.
type Config struct {
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	AdminPIN      string `json:"adminPin"`
}

// Player is one roster entry, keyed in the room by its connection identity.
// Answered is true exactly when Answer is set; both reset together whenever
// the question pointer moves.
type Player struct {
	Name     string
	Score    int
	Answered bool
	Answer   *int
}

// PlayerStanding is the public name+score pair shown on the leaderboard.
type PlayerStanding struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// LobbyState is the public room snapshot broadcast to all members. It never
// carries answers or the admin PIN.
type LobbyState struct {
	Code          string           `json:"code"`
	Started       bool             `json:"started"`
	QuestionIndex int              `json:"questionIndex"`
	PlayerCount   int              `json:"playerCount"`
	Players       []PlayerStanding `json:"players"`
}

// QuestionView is the player-facing view of the current question. The
// correct index is withheld.
type QuestionView struct {
	Prompt  string   `json:"q"`
	Options []string `json:"options"`
	Number  int      `json:"number"`
	Total   int      `json:"total"`
}

// AnswerDetail is one row of the admin-only results breakdown.
type AnswerDetail struct {
	Name        string `json:"name"`
	AnswerIndex *int   `json:"answerIndex"`
	Answer      string `json:"answer"`
	Correct     bool   `json:"correct"`
}

// Tally aggregates one question's answers: per-option counts plus the
// per-player breakdown, correct answers first, then alphabetical by name.
type Tally struct {
	Question     string         `json:"question"`
	Options      []string       `json:"options"`
	CorrectIndex int            `json:"correctIndex"`
	Counts       []int          `json:"counts"`
	TotalAnswers int            `json:"totalAnswers"`
	Details      []AnswerDetail `json:"details"`
}
