package distribution

import "github.com/stemsi/exstem-distributor/internal/question"

// Mix is the requested share of each difficulty, in percent.
type Mix struct {
	Easy   int
	Medium int
	Hard   int
}

// Valid reports whether every share is within 0..100 and they total 100.
func (m Mix) Valid() bool {
	for _, p := range []int{m.Easy, m.Medium, m.Hard} {
		if p < 0 || p > 100 {
			return false
		}
	}
	return m.Easy+m.Medium+m.Hard == 100
}

// roundShare is n*pct/100 rounded half up, in integer arithmetic.
func roundShare(n, pct int) int {
	return (2*n*pct + 100) / 200
}

// Targets splits n questions across difficulties. Easy and medium are
// rounded; medium is capped so the two never exceed n, and hard takes the
// remainder. The three always sum to n.
func Targets(n int, mix Mix) (easy, medium, hard int) {
	easy = roundShare(n, mix.Easy)
	medium = min(roundShare(n, mix.Medium), n-easy)
	hard = max(0, n-easy-medium)
	return easy, medium, hard
}

// SelectIndexes picks requested 0-based pool indexes balanced by difficulty.
// Buckets short of their target are topped up from whatever remains, so the
// result has min(requested, poolSize) entries. The result is shuffled.
func SelectIndexes(requested, poolSize int, difficulties question.SideTable, mix Mix, s *Shuffler) []int {
	requested = min(requested, poolSize)
	if requested <= 0 {
		return []int{}
	}

	var easy, medium, hard []int
	for i := 0; i < poolSize; i++ {
		switch question.NormalizeDifficulty(difficulties.Get(i+1, question.DifficultyMedium)) {
		case question.DifficultyEasy:
			easy = append(easy, i)
		case question.DifficultyHard:
			hard = append(hard, i)
		default:
			medium = append(medium, i)
		}
	}
	s.Shuffle(easy)
	s.Shuffle(medium)
	s.Shuffle(hard)

	easyTarget, mediumTarget, hardTarget := Targets(requested, mix)

	selected := make([]int, 0, requested)
	selected = append(selected, take(&easy, easyTarget)...)
	selected = append(selected, take(&medium, mediumTarget)...)
	selected = append(selected, take(&hard, hardTarget)...)

	if len(selected) < requested {
		remaining := make([]int, 0, len(easy)+len(medium)+len(hard))
		remaining = append(remaining, easy...)
		remaining = append(remaining, medium...)
		remaining = append(remaining, hard...)
		s.Shuffle(remaining)
		selected = append(selected, take(&remaining, requested-len(selected))...)
	}

	s.Shuffle(selected)
	return selected
}

// take removes and returns up to count entries from the front of pool.
func take(pool *[]int, count int) []int {
	if count <= 0 || len(*pool) == 0 {
		return nil
	}
	n := min(count, len(*pool))
	picked := (*pool)[:n:n]
	*pool = (*pool)[n:]
	return picked
}
