package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Question is a single multiple-choice question. Correct is an index into
// Options and must never be sent to players.
type Question struct {
	Prompt  string   `json:"q"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

type bank struct {
	Easy   []Question `json:"easy"`
	Medium []Question `json:"medium"`
	Hard   []Question `json:"hard"`
}

//go:embed questions.json
var questionsJSON []byte

var questionBank bank

func init() {
	if err := json.Unmarshal(questionsJSON, &questionBank); err != nil {
		panic(fmt.Sprintf("quiz: invalid embedded question bank: %v", err))
	}
}

// Pool returns the questions for a difficulty tier. Anything other than
// "easy", "medium" or "hard" yields the full mixed pool, tiers concatenated
// in order.
func Pool(difficulty string) []Question {
	switch difficulty {
	case "easy":
		return questionBank.Easy
	case "medium":
		return questionBank.Medium
	case "hard":
		return questionBank.Hard
	default:
		mixed := make([]Question, 0, len(questionBank.Easy)+len(questionBank.Medium)+len(questionBank.Hard))
		mixed = append(mixed, questionBank.Easy...)
		mixed = append(mixed, questionBank.Medium...)
		mixed = append(mixed, questionBank.Hard...)
		return mixed
	}
}
