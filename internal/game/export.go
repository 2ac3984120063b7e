package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportResults appends a room's final standings to a text file. It is
// called once per finished game; failures are reported to the caller and
// never abort the game flow.
func ExportResults(r *Room, filename string) error {
	state := r.LobbyState()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Julkampen - rum %s\n", state.Code))
	sb.WriteString(fmt.Sprintf("Avslutat: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	if len(state.Players) == 0 {
		sb.WriteString("Inga spelare.\n")
	}
	for i, p := range state.Players {
		sb.WriteString(fmt.Sprintf("%2d. %s: %d poäng\n", i+1, p.Name, p.Score))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
