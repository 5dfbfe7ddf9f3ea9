package simulation

import "sort"

// Tally counts simulation runs per outcome label
type Tally map[string]int

// Outcome is one row of a ranked tally
type Outcome struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// Merge adds every count of other into t
func (t Tally) Merge(other Tally) {
	for label, count := range other {
		t[label] += count
	}
}

// Total is the number of runs recorded
func (t Tally) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}

// Ranked orders outcomes by count, most frequent first, breaking ties by label
func (t Tally) Ranked() []Outcome {
	total := t.Total()
	outcomes := make([]Outcome, 0, len(t))
	for label, count := range t {
		outcome := Outcome{Label: label, Count: count}
		if total > 0 {
			outcome.Probability = float64(count) / float64(total)
		}
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Count != outcomes[j].Count {
			return outcomes[i].Count > outcomes[j].Count
		}
		return outcomes[i].Label < outcomes[j].Label
	})
	return outcomes
}

// Top returns at most n ranked outcomes; n <= 0 returns all of them
func (t Tally) Top(n int) []Outcome {
	ranked := t.Ranked()
	if n > 0 && n < len(ranked) {
		return ranked[:n]
	}
	return ranked
}
