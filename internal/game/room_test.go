package game

import (
	"fmt"
	"reflect"
	"testing"
)

const testPIN = "1234"

func newTestRoom(t *testing.T, cfg Config) *Room {
	t.Helper()
	if cfg.AdminPIN == "" {
		cfg.AdminPIN = testPIN
	}
	return NewRegistry().Create(cfg, "admin-conn")
}

func correctOption(r *Room) int {
	return r.pool[r.order[r.position]].Correct
}

func wrongOption(r *Room) int {
	q := r.pool[r.order[r.position]]
	return (q.Correct + 1) % len(q.Options)
}

func TestJoinDeduplicatesNames(t *testing.T) {
	room := newTestRoom(t, Config{})

	name1, err := room.Join("conn-1", "Anna")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if name1 != "Anna" {
		t.Fatalf("expected Anna, got %q", name1)
	}

	name2, err := room.Join("conn-2", "anna")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if name2 != "anna 2" {
		t.Fatalf("expected suffixed name, got %q", name2)
	}

	name3, err := room.Join("conn-3", "ANNA")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if name3 != "ANNA 3" {
		t.Fatalf("expected suffixed name, got %q", name3)
	}
}

func TestJoinRejectsBlankName(t *testing.T) {
	room := newTestRoom(t, Config{})
	if _, err := room.Join("conn-1", "   "); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestJoinRejectsWhenFull(t *testing.T) {
	room := newTestRoom(t, Config{})
	for i := 0; i < MaxPlayers; i++ {
		if _, err := room.Join(fmt.Sprintf("conn-%d", i), fmt.Sprintf("Spelare %d", i)); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	if _, err := room.Join("conn-19", "En till"); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if got := room.LobbyState().PlayerCount; got != MaxPlayers {
		t.Fatalf("roster changed on rejected join: %d players", got)
	}
}

func TestJoinRejectedAfterStart(t *testing.T) {
	room := newTestRoom(t, Config{})
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := room.Join("conn-1", "Anna"); err != ErrGameStarted {
		t.Fatalf("expected ErrGameStarted, got %v", err)
	}
}

func TestAnswerScoringAndIdempotence(t *testing.T) {
	room := newTestRoom(t, Config{Difficulty: "easy"})
	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	correct := correctOption(room)
	if err := room.SubmitAnswer("conn-1", correct); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if got := room.LobbyState().Players[0].Score; got != 1 {
		t.Fatalf("expected score 1 after correct answer, got %d", got)
	}

	// A second submission for the same question is a silent no-op.
	if err := room.SubmitAnswer("conn-1", wrongOption(room)); err != nil {
		t.Fatalf("repeat answer should not error: %v", err)
	}
	if got := room.LobbyState().Players[0].Score; got != 1 {
		t.Fatalf("repeat answer changed score to %d", got)
	}
	tally := room.Results()
	if tally.Details[0].AnswerIndex == nil || *tally.Details[0].AnswerIndex != correct {
		t.Fatal("repeat answer overwrote the recorded choice")
	}
}

func TestAnswerBeforeStart(t *testing.T) {
	room := newTestRoom(t, Config{})
	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.SubmitAnswer("conn-1", 0); err != ErrGameNotStarted {
		t.Fatalf("expected ErrGameNotStarted, got %v", err)
	}
}

func TestAnswerFromStranger(t *testing.T) {
	room := newTestRoom(t, Config{})
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := room.SubmitAnswer("stranger", 0); err != ErrNotInRoom {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}
}

func TestAdvanceResetsAnswers(t *testing.T) {
	room := newTestRoom(t, Config{})
	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := room.SubmitAnswer("conn-1", correctOption(room)); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	done, err := room.Advance("admin-conn", testPIN)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if done {
		t.Fatal("game should not be done after one question")
	}
	for identity, p := range room.players {
		if p.Answered || p.Answer != nil {
			t.Fatalf("player %s still has per-question state after advance", identity)
		}
	}
	if room.Results().TotalAnswers != 0 {
		t.Fatal("tally should be empty after advance")
	}
}

func TestResultsIsPureRead(t *testing.T) {
	room := newTestRoom(t, Config{})
	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := room.Join("conn-2", "Bertil"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := room.SubmitAnswer("conn-1", correctOption(room)); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	first := room.Results()
	second := room.Results()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two tallies differ:\n%+v\n%+v", first, second)
	}
}

func TestWrongPINMakesNoStateChange(t *testing.T) {
	room := newTestRoom(t, Config{})

	if err := room.Start("stranger", "0000"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if room.Phase() != PhaseLobby {
		t.Fatalf("rejected start changed phase to %s", room.Phase())
	}
	if room.boundAdmin != "admin-conn" {
		t.Fatal("rejected start re-bound the admin")
	}

	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := room.Reveal("stranger", "9999"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := room.Advance("stranger", "9999"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := room.End("stranger", "9999"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if room.Phase() != PhaseQuestion {
		t.Fatalf("rejected admin actions changed phase to %s", room.Phase())
	}
}

func TestBoundAdminActsWithoutPIN(t *testing.T) {
	room := newTestRoom(t, Config{})
	if err := room.Start("admin-conn", ""); err != nil {
		t.Fatalf("bound admin should not need the PIN: %v", err)
	}
}

func TestEndGameIsTerminal(t *testing.T) {
	room := newTestRoom(t, Config{})
	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.End("admin-conn", testPIN); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if room.Phase() != PhaseOver {
		t.Fatalf("expected %s, got %s", PhaseOver, room.Phase())
	}
	if err := room.Start("admin-conn", testPIN); err != ErrGameOver {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if err := room.SubmitAnswer("conn-1", 0); err != ErrGameNotStarted {
		t.Fatalf("expected ErrGameNotStarted, got %v", err)
	}
}

func TestLobbyStateOrdering(t *testing.T) {
	room := newTestRoom(t, Config{})
	for i, name := range []string{"Cesar", "Anna", "Bertil"} {
		if _, err := room.Join(fmt.Sprintf("conn-%d", i), name); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := room.SubmitAnswer("conn-2", correctOption(room)); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	players := room.LobbyState().Players
	if players[0].Name != "Bertil" || players[0].Score != 1 {
		t.Fatalf("expected Bertil on top, got %+v", players)
	}
	if players[1].Name != "Anna" || players[2].Name != "Cesar" {
		t.Fatalf("expected name order for equal scores, got %+v", players)
	}
}

func TestFullGameScenario(t *testing.T) {
	room := newTestRoom(t, Config{Difficulty: "easy", QuestionCount: 3})

	if len(room.order) != 5 {
		t.Fatalf("expected count clamped to 5, got %d", len(room.order))
	}

	if _, err := room.Join("conn-1", "Anna"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := room.Join("conn-2", "Bertil"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := room.Start("admin-conn", testPIN); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	q, ok := room.CurrentQuestion()
	if !ok {
		t.Fatal("expected a current question")
	}
	if q.Number != 1 || q.Total != 5 {
		t.Fatalf("expected question 1/5, got %d/%d", q.Number, q.Total)
	}

	if err := room.SubmitAnswer("conn-1", correctOption(room)); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if err := room.SubmitAnswer("conn-2", wrongOption(room)); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	tally, err := room.Reveal("admin-conn", testPIN)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if room.Phase() != PhaseResults {
		t.Fatalf("expected %s after reveal, got %s", PhaseResults, room.Phase())
	}
	if tally.TotalAnswers != 2 {
		t.Fatalf("expected 2 answers tallied, got %d", tally.TotalAnswers)
	}
	sum := 0
	for _, c := range tally.Counts {
		sum += c
	}
	if sum != 2 {
		t.Fatalf("expected counts summing to 2, got %d", sum)
	}
	if len(tally.Details) != 2 {
		t.Fatalf("expected 2 detail rows, got %d", len(tally.Details))
	}
	if tally.Details[0].Name != "Anna" || !tally.Details[0].Correct {
		t.Fatalf("expected Anna sorted first as correct, got %+v", tally.Details)
	}
	if tally.Details[1].Name != "Bertil" || tally.Details[1].Correct {
		t.Fatalf("expected Bertil second as incorrect, got %+v", tally.Details)
	}

	done, err := room.Advance("admin-conn", testPIN)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if done {
		t.Fatal("unexpected done after question 1")
	}
	q, _ = room.CurrentQuestion()
	if q.Number != 2 || q.Total != 5 {
		t.Fatalf("expected question 2/5, got %d/%d", q.Number, q.Total)
	}
	for _, p := range room.players {
		if p.Answered || p.Answer != nil {
			t.Fatal("per-question state not reset on advance")
		}
	}

	for i := 0; i < 3; i++ {
		if done, err = room.Advance("admin-conn", testPIN); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if done {
			t.Fatalf("done too early at advance %d", i)
		}
	}
	done, err = room.Advance("admin-conn", testPIN)
	if err != nil {
		t.Fatalf("final advance failed: %v", err)
	}
	if !done {
		t.Fatal("expected done after the last question")
	}
	if room.Phase() != PhaseOver {
		t.Fatalf("expected %s, got %s", PhaseOver, room.Phase())
	}
	if _, err := room.Advance("admin-conn", testPIN); err != ErrGameOver {
		t.Fatalf("expected ErrGameOver after the end, got %v", err)
	}
}
