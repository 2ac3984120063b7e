package game

import (
	"crypto/subtle"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/johanlidstrom74-sudo/julkampen/internal/quiz"
)

// Room is one trivia session. Every mutation funnels through its methods and
// runs under the room mutex, so transitions are atomic with respect to each
// other; rooms share no mutable state with one another.
type Room struct {
	mu sync.Mutex

	code     string
	adminPIN string

	// boundAdmin is the connection identity currently recognized as admin.
	// It is a back-reference only: cleared when that connection drops and
	// re-bound by any later successful authority check.
	boundAdmin string

	phase    Phase
	started  bool
	position int
	order    []int
	pool     []quiz.Question

	players map[string]*Player
}

func (r *Room) Code() string { return r.code }

func (r *Room) AdminPIN() string { return r.adminPIN }

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Join adds a player to the lobby. The stored name is deduplicated against
// the roster case-insensitively by appending a numeric suffix, and the final
// name is returned.
func (r *Room) Join(identity, name string) (string, error) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return "", ErrGameStarted
	}
	if len(r.players) >= MaxPlayers {
		return "", ErrRoomFull
	}
	if name == "" {
		return "", ErrEmptyName
	}

	taken := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		taken[strings.ToLower(p.Name)] = true
	}
	finalName := name
	if taken[strings.ToLower(finalName)] {
		i := 2
		for taken[strings.ToLower(fmt.Sprintf("%s %d", name, i))] {
			i++
		}
		finalName = fmt.Sprintf("%s %d", name, i)
	}

	r.players[identity] = &Player{Name: finalName}
	return finalName, nil
}

// Start begins the quiz, or re-syncs it after an admin reconnect. All
// per-question player state is reset and the room moves to the current
// question.
func (r *Room) Start(identity, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseOver {
		return ErrGameOver
	}
	if !r.authorize(identity, pin) {
		return ErrNotAuthorized
	}

	r.started = true
	r.phase = PhaseQuestion
	r.resetAnswers()
	return nil
}

// SubmitAnswer records a player's choice for the current question and scores
// it immediately. A repeat submission for the same question is a no-op, not
// an error.
func (r *Room) SubmitAnswer(identity string, option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || r.phase == PhaseOver {
		return ErrGameNotStarted
	}
	p := r.players[identity]
	if p == nil {
		return ErrNotInRoom
	}
	if p.Answered {
		return nil
	}

	opt := option
	p.Answered = true
	p.Answer = &opt
	if option == r.pool[r.order[r.position]].Correct {
		p.Score++
	}
	return nil
}

// Reveal moves the room to the results phase and returns the tally for the
// current question. The tally is for the admin's eyes only; calling Reveal
// repeatedly yields the same report.
func (r *Room) Reveal(identity, pin string) (*Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil, ErrGameNotStarted
	}
	if r.phase == PhaseOver {
		return nil, ErrGameOver
	}
	if !r.authorize(identity, pin) {
		return nil, ErrNotAuthorized
	}

	r.phase = PhaseResults
	return r.tally(), nil
}

// Advance moves the question pointer forward and clears every player's
// per-question state. When the order is exhausted the room becomes terminal
// and done is true.
func (r *Room) Advance(identity, pin string) (done bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return false, ErrGameNotStarted
	}
	if r.phase == PhaseOver {
		return false, ErrGameOver
	}
	if !r.authorize(identity, pin) {
		return false, ErrNotAuthorized
	}

	r.position++
	r.resetAnswers()

	if r.position >= len(r.order) {
		r.phase = PhaseOver
		return true, nil
	}
	r.phase = PhaseQuestion
	return false, nil
}

// End terminates the game unconditionally. The caller is responsible for
// removing the room from its registry afterwards.
func (r *Room) End(identity, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.authorize(identity, pin) {
		return ErrNotAuthorized
	}
	r.phase = PhaseOver
	return nil
}

// Results recomputes the tally for the current question. It is a pure read.
func (r *Room) Results() *Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tally()
}

// LobbyState snapshots the public room view: roster and scores, sorted by
// score descending with names breaking ties.
func (r *Room) LobbyState() LobbyState {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]PlayerStanding, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerStanding{Name: p.Name, Score: p.Score})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return strings.ToLower(players[i].Name) < strings.ToLower(players[j].Name)
	})

	return LobbyState{
		Code:          r.code,
		Started:       r.started,
		QuestionIndex: r.position,
		PlayerCount:   len(players),
		Players:       players,
	}
}

// CurrentQuestion returns the player-facing view of the active question.
// The second return is false once the order is exhausted.
func (r *Room) CurrentQuestion() (QuestionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.position >= len(r.order) {
		return QuestionView{}, false
	}
	q := r.pool[r.order[r.position]]
	return QuestionView{
		Prompt:  q.Prompt,
		Options: q.Options,
		Number:  r.position + 1,
		Total:   len(r.order),
	}, true
}

// authorize implements the admin authority check: either the caller is the
// bound admin connection, or the supplied PIN matches in constant time. A
// successful check re-binds the admin to the caller, which is how an admin
// regains the room after reconnecting. Callers must hold r.mu.
func (r *Room) authorize(identity, pin string) bool {
	ok := (r.boundAdmin != "" && r.boundAdmin == identity) ||
		(len(pin) == len(r.adminPIN) &&
			subtle.ConstantTimeCompare([]byte(pin), []byte(r.adminPIN)) == 1)
	if ok {
		r.boundAdmin = identity
	}
	return ok
}

// resetAnswers clears every player's per-question state. Callers must hold
// r.mu.
func (r *Room) resetAnswers() {
	for _, p := range r.players {
		p.Answered = false
		p.Answer = nil
	}
}

// dropIdentity removes whatever roles the identity held in this room and
// reports whether anything changed.
func (r *Room) dropIdentity(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	if r.boundAdmin == identity {
		r.boundAdmin = ""
		changed = true
	}
	if _, ok := r.players[identity]; ok {
		delete(r.players, identity)
		changed = true
	}
	return changed
}
