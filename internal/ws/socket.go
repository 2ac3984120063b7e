package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/johanlidstrom74-sudo/julkampen/internal/game"
)

// ConnCtx travels with each socket connection. Identity is an opaque token
// issued at connect time; rooms reference it, never the connection itself.
type ConnCtx struct {
	Identity string
}

type Server struct {
	registry   *game.Registry
	exportFile string

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // room code -> identity -> conn
}

func New(registry *game.Registry, exportFile string) *Server {
	return &Server{
		registry:   registry,
		exportFile: exportFile,
		members:    make(map[string]map[string]socketio.Conn),
	}
}

// Mount attaches the Socket.IO server with all game event handlers to the
// given Gin engine. Every inbound event acks with at least {ok, error?}.
func (srv *Server) Mount(r *gin.Engine, origin string) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{Identity: uuid.NewString()})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create_game", func(s socketio.Conn, payload struct {
		QuestionCount int    `json:"questionCount"`
		Difficulty    string `json:"difficulty"`
		AdminPin      string `json:"adminPin"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		count := payload.QuestionCount
		if count == 0 {
			count = 10
		}
		room := srv.registry.Create(game.Config{
			Difficulty:    payload.Difficulty,
			QuestionCount: count,
			AdminPIN:      payload.AdminPin,
		}, ctx.Identity)
		code := room.Code()
		s.Join(code)
		srv.addMember(code, ctx.Identity, s)
		log.Info().Str("code", code).Str("identity", ctx.Identity).Msg("create_game")
		srv.broadcastLobby(room)
		// The PIN goes only to the creator, in the ack.
		return map[string]any{"ok": true, "code": code, "adminPin": room.AdminPIN()}
	})

	io.OnEvent("/", "join_game", func(s socketio.Conn, payload struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck("Ingen lobby med den koden.")
		}
		name, err := room.Join(ctx.Identity, payload.Name)
		if err != nil {
			return errAck(messageFor(err))
		}
		code := room.Code()
		s.Join(code)
		srv.addMember(code, ctx.Identity, s)
		log.Info().Str("code", code).Str("identity", ctx.Identity).Str("name", name).Msg("join_game")
		srv.broadcastLobby(room)
		return map[string]any{"ok": true, "name": name}
	})

	io.OnEvent("/", "start_game", func(s socketio.Conn, payload struct {
		Code     string `json:"code"`
		AdminPin string `json:"adminPin"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck(messageFor(err))
		}
		if err := room.Start(ctx.Identity, payload.AdminPin); err != nil {
			return errAck(messageFor(err))
		}
		srv.rejoin(room.Code(), ctx.Identity, s)
		log.Info().Str("code", room.Code()).Msg("start_game")
		srv.broadcast(room.Code(), "game_started", room.LobbyState())
		if q, ok := room.CurrentQuestion(); ok {
			srv.broadcast(room.Code(), "question", q)
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "answer", func(s socketio.Conn, payload struct {
		Code        string `json:"code"`
		OptionIndex int    `json:"optionIndex"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck("Spelet är inte igång.")
		}
		if err := room.SubmitAnswer(ctx.Identity, payload.OptionIndex); err != nil {
			if errors.Is(err, game.ErrGameNotStarted) {
				return errAck("Spelet är inte igång.")
			}
			return errAck(messageFor(err))
		}
		srv.broadcastLobby(room)
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "reveal_results", func(s socketio.Conn, payload struct {
		Code     string `json:"code"`
		AdminPin string `json:"adminPin"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck(messageFor(err))
		}
		tally, err := room.Reveal(ctx.Identity, payload.AdminPin)
		if err != nil {
			return errAck(messageFor(err))
		}
		srv.rejoin(room.Code(), ctx.Identity, s)
		log.Info().Str("code", room.Code()).Int("answers", tally.TotalAnswers).Msg("reveal_results")
		// Results go to the admin connection only, never the room.
		s.Emit("question_results", tally)
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "next_question", func(s socketio.Conn, payload struct {
		Code     string `json:"code"`
		AdminPin string `json:"adminPin"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck(messageFor(err))
		}
		done, err := room.Advance(ctx.Identity, payload.AdminPin)
		if err != nil {
			return errAck(messageFor(err))
		}
		srv.rejoin(room.Code(), ctx.Identity, s)
		log.Info().Str("code", room.Code()).Bool("done", done).Msg("next_question")
		if done {
			srv.broadcast(room.Code(), "game_over", room.LobbyState())
			srv.export(room)
			return map[string]any{"ok": true, "done": true}
		}
		if q, ok := room.CurrentQuestion(); ok {
			srv.broadcast(room.Code(), "question", q)
		}
		srv.broadcastLobby(room)
		return map[string]any{"ok": true, "done": false}
	})

	io.OnEvent("/", "end_game", func(s socketio.Conn, payload struct {
		Code     string `json:"code"`
		AdminPin string `json:"adminPin"`
	}) map[string]any {
		ctx := s.Context().(*ConnCtx)
		room, err := srv.registry.Find(payload.Code)
		if err != nil {
			return errAck(messageFor(err))
		}
		if err := room.End(ctx.Identity, payload.AdminPin); err != nil {
			return errAck(messageFor(err))
		}
		log.Info().Str("code", room.Code()).Msg("end_game")
		srv.broadcast(room.Code(), "game_over", room.LobbyState())
		srv.export(room)
		srv.registry.Delete(room.Code())
		srv.dropRoom(room.Code())
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx, ok := s.Context().(*ConnCtx)
		if !ok {
			return
		}
		srv.removeMember(ctx.Identity)
		for _, room := range srv.registry.HandleDisconnect(ctx.Identity) {
			srv.broadcastLobby(room)
		}
		log.Info().Str("identity", ctx.Identity).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// rejoin re-registers a connection under a room after a privileged action
// succeeded, so a reconnected admin receives broadcasts again.
func (srv *Server) rejoin(code, identity string, s socketio.Conn) {
	s.Join(code)
	srv.addMember(code, identity, s)
}

func (srv *Server) addMember(code, identity string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][identity] = c
}

func (srv *Server) removeMember(identity string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	for _, m := range srv.members {
		delete(m, identity)
	}
}

func (srv *Server) dropRoom(code string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.members, code)
}

func (srv *Server) broadcast(code string, event string, payload any) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()

	for _, c := range conns {
		c.Emit(event, payload)
	}
}

func (srv *Server) broadcastLobby(room *game.Room) {
	srv.broadcast(room.Code(), "lobby_update", room.LobbyState())
}

func (srv *Server) export(room *game.Room) {
	if srv.exportFile == "" {
		return
	}
	if err := game.ExportResults(room, srv.exportFile); err != nil {
		log.Error().Err(err).Str("code", room.Code()).Msg("failed to export results")
	} else {
		log.Info().Str("code", room.Code()).Str("file", srv.exportFile).Msg("exported results")
	}
}

func errAck(message string) map[string]any {
	return map[string]any{"ok": false, "error": message}
}

// messageFor maps game errors to the user-facing messages shown by the
// frontend. Unknown errors pass through as-is.
func messageFor(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Lobby saknas."
	case errors.Is(err, game.ErrNotAuthorized):
		return "Fel admin-PIN."
	case errors.Is(err, game.ErrGameNotStarted):
		return "Spelet är inte startat."
	case errors.Is(err, game.ErrGameStarted):
		return "Quizen har redan startat."
	case errors.Is(err, game.ErrGameOver):
		return "Spelet är redan slut."
	case errors.Is(err, game.ErrRoomFull):
		return "Lobbyn är full (max 18 spelare)."
	case errors.Is(err, game.ErrEmptyName):
		return "Skriv ett namn."
	case errors.Is(err, game.ErrNotInRoom):
		return "Du är inte med i lobbyn."
	default:
		return err.Error()
	}
}
