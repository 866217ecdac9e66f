package similarity

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

// ErrNotEnoughDays is returned when a dataset has fewer than two days.
var ErrNotEnoughDays = errors.New("at least two days are required for a match")

// Days is the read side of the dataset the matchers scan.
type Days interface {
	Dates() []string
	GetDay(date string) (weather.DayRecord, error)
}

// PartialPolicy decides what happens when two days cannot be compared.
type PartialPolicy string

const (
	// PartialStrict propagates the IncompatibleSequenceError.
	PartialStrict PartialPolicy = "strict"
	// PartialSkip leaves incompatible pairs out of the result.
	PartialSkip PartialPolicy = "skip"
)

// Match is a pair of dates and their Euclidean score. For top-K results A is
// the target date.
type Match struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// Matcher runs the distance engine over a dataset.
type Matcher struct {
	policy PartialPolicy
	logger *slog.Logger
}

// NewMatcher creates a Matcher. An empty policy means PartialStrict.
func NewMatcher(policy PartialPolicy, logger *slog.Logger) *Matcher {
	if policy == "" {
		policy = PartialStrict
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{policy: policy, logger: logger}
}

// BestMatch scans every unordered pair of distinct days in dataset order and
// returns the pair with the lowest score. Ties keep the first pair seen.
func (m *Matcher) BestMatch(days Days) (Match, error) {
	records, err := load(days)
	if err != nil {
		return Match{}, err
	}
	if len(records) < 2 {
		return Match{}, ErrNotEnoughDays
	}

	best := Match{Score: math.Inf(1)}
	found := false
	skipped := 0
	pairs := 0

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			pairs++
			score, err := m.distance(records[i], records[j])
			if err != nil {
				return Match{}, err
			}
			if math.IsNaN(score) {
				skipped++
				continue
			}
			if score < best.Score {
				best = Match{A: records[i].Date, B: records[j].Date, Score: score}
				found = true
			}
		}
	}

	m.logger.Debug("best match scan complete", "pairs", pairs, "skipped", skipped)

	if !found {
		return Match{}, fmt.Errorf("best match: no comparable pair among %d days: %w", len(records), weather.ErrIncompatibleSequence)
	}
	return best, nil
}

// TopK returns the k days closest to target, sorted by ascending score. The
// target itself is never part of the result.
func (m *Matcher) TopK(days Days, target string, k int) ([]Match, error) {
	if k < 0 {
		return nil, fmt.Errorf("top-k: k must not be negative, got %d", k)
	}

	ref, err := days.GetDay(target)
	if err != nil {
		return nil, err
	}

	records, err := load(days)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.Date == target {
			continue
		}
		score, err := m.distance(ref, rec)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(score) {
			skipped++
			continue
		}
		matches = append(matches, Match{A: target, B: rec.Date, Score: score})
	}

	slices.SortStableFunc(matches, func(x, y Match) int {
		return cmp.Compare(x.Score, y.Score)
	})

	if skipped > 0 {
		m.logger.Debug("top-k skipped incompatible days", "target", target, "skipped", skipped)
	}

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// distance applies the partial policy. Skipped pairs come back as NaN.
func (m *Matcher) distance(a, b weather.DayRecord) (float64, error) {
	score, err := Euclidean(a, b)
	if err == nil {
		return score, nil
	}
	if m.policy == PartialSkip && errors.Is(err, weather.ErrIncompatibleSequence) {
		return math.NaN(), nil
	}
	return 0, err
}

func load(days Days) ([]weather.DayRecord, error) {
	dates := days.Dates()
	records := make([]weather.DayRecord, 0, len(dates))
	for _, date := range dates {
		rec, err := days.GetDay(date)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
