package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/johanlidstrom74-sudo/julkampen/internal/quiz"
)

// Excludes characters that read ambiguously on a projector (I/L/O/0/1).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// Registry owns every live room in the process. Rooms exist only in memory
// and only for the lifetime of the registry.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create builds a room from the admin's config and binds adminIdentity as
// its admin connection. The question order is drawn once, here, and never
// changes afterwards. A fresh code is generated until it does not collide
// with a live room.
func (reg *Registry) Create(cfg Config, adminIdentity string) *Room {
	order, pool := quiz.Select(cfg.Difficulty, cfg.QuestionCount)

	pin := strings.TrimSpace(cfg.AdminPIN)
	if pin == "" {
		pin = randomPIN()
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := randomCode()
	for reg.rooms[code] != nil {
		code = randomCode()
	}

	room := &Room{
		code:       code,
		adminPIN:   pin,
		boundAdmin: adminIdentity,
		phase:      PhaseLobby,
		order:      order,
		pool:       pool,
		players:    make(map[string]*Player),
	}
	reg.rooms[code] = room
	return room
}

// Find resolves a room code. Codes are case-insensitive on input.
func (reg *Registry) Find(code string) (*Room, error) {
	code = NormalizeCode(code)
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room := reg.rooms[code]
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (reg *Registry) Delete(code string) {
	code = NormalizeCode(code)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// HandleDisconnect reacts to a connection going away: in every room the
// identity is unbound as admin and/or removed from the roster. Rooms whose
// bound admin disappears survive, since the admin can return with the PIN.
// The affected rooms are returned so callers can re-broadcast lobby state.
func (reg *Registry) HandleDisconnect(identity string) []*Room {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	var changed []*Room
	for _, room := range rooms {
		if room.dropIdentity(identity) {
			changed = append(changed, room)
		}
	}
	return changed
}

// NormalizeCode uppercases and trims a caller-supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func randomPIN() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}
