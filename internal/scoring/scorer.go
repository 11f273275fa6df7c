// Package scoring ranks basins by how attractive they are for alternative water supply
package scoring

// Step is one rung of a scoring ladder: rates strictly below Below earn Score
type Step struct {
	Below float64
	Score int
}

// Ladder maps a dam filling rate to a market opportunity score.
// Steps must be ordered by ascending Below; rates above every step earn Floor.
type Ladder struct {
	Steps []Step
	Floor int
}

// DefaultLadder scores lower filling rates as bigger opportunities
var DefaultLadder = Ladder{
	Steps: []Step{
		{Below: 20, Score: 9}, // Critical opportunity
		{Below: 40, Score: 7}, // High opportunity
		{Below: 60, Score: 5}, // Medium opportunity
	},
	Floor: 3,
}

// Score returns the score of the first step whose threshold lies above the rate
func (l Ladder) Score(fillingRatePercent float64) int {
	for _, step := range l.Steps {
		if fillingRatePercent < step.Below {
			return step.Score
		}
	}
	return l.Floor
}

// Scores lists every score the ladder can produce, best first
func (l Ladder) Scores() []int {
	scores := make([]int, 0, len(l.Steps)+1)
	for _, step := range l.Steps {
		scores = append(scores, step.Score)
	}
	return append(scores, l.Floor)
}

// Score scores a filling rate with DefaultLadder
func Score(fillingRatePercent float64) int {
	return DefaultLadder.Score(fillingRatePercent)
}
