package game

import (
	"sort"
	"strings"
)

// NoAnswerMarker is shown in the breakdown for players without a recorded
// choice for the current question.
const NoAnswerMarker = "Inget svar"

// tally aggregates the current question's answers. Counts only include
// in-range options; every roster member gets a breakdown row regardless.
// Callers must hold r.mu.
func (r *Room) tally() *Tally {
	q := r.pool[r.order[r.position]]

	counts := make([]int, len(q.Options))
	details := make([]AnswerDetail, 0, len(r.players))
	total := 0

	for _, p := range r.players {
		d := AnswerDetail{Name: p.Name, Answer: NoAnswerMarker}
		if p.Answer != nil {
			a := *p.Answer
			d.AnswerIndex = &a
			if a >= 0 && a < len(counts) {
				counts[a]++
				total++
				d.Answer = q.Options[a]
			}
			d.Correct = a == q.Correct
		}
		details = append(details, d)
	}

	sort.Slice(details, func(i, j int) bool {
		if details[i].Correct != details[j].Correct {
			return details[i].Correct
		}
		return strings.ToLower(details[i].Name) < strings.ToLower(details[j].Name)
	})

	return &Tally{
		Question:     q.Prompt,
		Options:      q.Options,
		CorrectIndex: q.Correct,
		Counts:       counts,
		TotalAnswers: total,
		Details:      details,
	}
}
