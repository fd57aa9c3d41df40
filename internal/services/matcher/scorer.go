// Package matcher scores candidate profiles against a user's weighted
// preferences and ranks them for browsing.
package matcher

import (
	"math"
	"slices"
	"strings"
	"time"

	"matrimony-match-engine/internal/models"
)

// Range scoring defaults.
const (
	DefaultBufferWidth  = 5.0
	DefaultBufferCredit = 0.5
)

// Options tunes the scorer.
type Options struct {
	// BufferWidth is how far outside a range a value still earns partial credit.
	BufferWidth float64
	// BufferCredit is the fraction of the weight earned inside the buffer.
	BufferCredit float64
	// Now supplies the date used to derive ages. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns a 5 unit buffer worth half the weight.
func DefaultOptions() Options {
	return Options{
		BufferWidth:  DefaultBufferWidth,
		BufferCredit: DefaultBufferCredit,
		Now:          time.Now,
	}
}

// Scorer computes match scores. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	opts Options
}

// NewScorer creates a scorer with the given options.
func NewScorer(opts Options) *Scorer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scorer{opts: opts}
}

// Evaluation is a score together with the accumulators it came from.
type Evaluation struct {
	Score     int                     `json:"score"`
	Achieved  float64                 `json:"achieved"`
	Possible  float64                 `json:"possible"`
	Breakdown []models.DimensionScore `json:"breakdown,omitempty"`
}

// evalFunc returns the credit a candidate earns on one dimension and the
// weight it puts at stake. A skipped dimension returns (0, 0, OutcomeSkipped).
type evalFunc func(s *Scorer, now time.Time, p *models.UserPreferences, c *models.Profile) (achieved, possible float64, outcome models.Outcome)

type evaluator struct {
	dimension models.Dimension
	eval      evalFunc
}

// evaluators run in this order; the score is the sum over all of them.
var evaluators = [...]evaluator{
	{models.DimensionAge, evalAge},
	{models.DimensionHeight, evalHeight},
	{models.DimensionLocation, evalLocation},
	{models.DimensionReligion, categorical(func(p *models.UserPreferences) models.CategoricalPreference { return p.Religion }, func(c *models.Profile) *string { return c.Religion })},
	{models.DimensionCaste, categorical(func(p *models.UserPreferences) models.CategoricalPreference { return p.Caste }, func(c *models.Profile) *string { return c.Caste })},
	{models.DimensionEducation, categorical(func(p *models.UserPreferences) models.CategoricalPreference { return p.Education }, func(c *models.Profile) *string { return c.Education })},
}

func skipped() (float64, float64, models.Outcome) {
	return 0, 0, models.OutcomeSkipped
}

// Age is evaluated whenever enabled; a candidate without age or date of
// birth counts as 0 years and misses the range.
func evalAge(s *Scorer, now time.Time, p *models.UserPreferences, c *models.Profile) (float64, float64, models.Outcome) {
	if !p.AgeRange.Enabled {
		return skipped()
	}
	return s.scoreRange(p.AgeRange, float64(c.AgeOn(now)))
}

func evalHeight(s *Scorer, _ time.Time, p *models.UserPreferences, c *models.Profile) (float64, float64, models.Outcome) {
	if !p.HeightRange.Enabled || c.Height == nil {
		return skipped()
	}
	return s.scoreRange(p.HeightRange, *c.Height)
}

func evalLocation(_ *Scorer, _ time.Time, p *models.UserPreferences, c *models.Profile) (float64, float64, models.Outcome) {
	if !p.Locations.Enabled || c.District == nil {
		return skipped()
	}
	w := float64(p.Locations.Weight)
	if p.Locations.Accepts(*c.District) {
		return w, w, models.OutcomeMatch
	}
	return 0, w, models.OutcomeMiss
}

func categorical(pref func(*models.UserPreferences) models.CategoricalPreference, value func(*models.Profile) *string) evalFunc {
	return func(_ *Scorer, _ time.Time, p *models.UserPreferences, c *models.Profile) (float64, float64, models.Outcome) {
		cp := pref(p)
		v := value(c)
		if !cp.Enabled || v == nil || cp.Value == nil || *cp.Value == "" {
			return skipped()
		}
		w := float64(cp.Weight)
		if *v == *cp.Value {
			return w, w, models.OutcomeMatch
		}
		return 0, w, models.OutcomeMiss
	}
}

func (s *Scorer) scoreRange(r models.RangePreference, v float64) (float64, float64, models.Outcome) {
	w := float64(r.Weight)
	switch {
	case r.Contains(v):
		return w, w, models.OutcomeMatch
	case v >= r.Min-s.opts.BufferWidth && v < r.Min,
		v > r.Max && v <= r.Max+s.opts.BufferWidth:
		return w * s.opts.BufferCredit, w, models.OutcomeBuffer
	default:
		return 0, w, models.OutcomeMiss
	}
}

func (s *Scorer) evaluate(now time.Time, p *models.UserPreferences, c *models.Profile, withBreakdown bool) Evaluation {
	var ev Evaluation
	if withBreakdown {
		ev.Breakdown = make([]models.DimensionScore, 0, len(evaluators))
	}

	for _, e := range evaluators {
		achieved, possible, outcome := e.eval(s, now, p, c)
		ev.Achieved += achieved
		ev.Possible += possible
		if withBreakdown {
			ev.Breakdown = append(ev.Breakdown, models.DimensionScore{
				Dimension: e.dimension,
				Achieved:  achieved,
				Possible:  possible,
				Outcome:   outcome,
			})
		}
	}

	ev.Score = percentage(ev.Achieved, ev.Possible)
	return ev
}

func percentage(achieved, possible float64) int {
	if possible == 0 {
		return 0
	}
	return int(math.Round(math.Min(100, achieved/possible*100)))
}

// Score returns the match score of candidate under p, an integer in [0, 100].
func (s *Scorer) Score(p *models.UserPreferences, candidate *models.Profile) int {
	return s.evaluate(s.opts.Now(), p, candidate, false).Score
}

// Evaluate returns the score with its per-dimension breakdown.
func (s *Scorer) Evaluate(p *models.UserPreferences, candidate *models.Profile) Evaluation {
	return s.evaluate(s.opts.Now(), p, candidate, true)
}

// ScoreAll scores every candidate and returns annotated copies in input order.
func (s *Scorer) ScoreAll(p *models.UserPreferences, candidates []*models.Profile, withBreakdown bool) []models.ScoredCandidate {
	now := s.opts.Now()
	out := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		ev := s.evaluate(now, p, c, withBreakdown)
		out = append(out, models.ScoredCandidate{
			Profile:    *c,
			MatchScore: ev.Score,
			Breakdown:  ev.Breakdown,
		})
	}
	return out
}

var defaultScorer = NewScorer(DefaultOptions())

// Score scores a candidate with the default options.
func Score(p *models.UserPreferences, candidate *models.Profile) int {
	return defaultScorer.Score(p, candidate)
}

// SortByScore returns a new slice ordered by score descending. Equal scores
// are ordered by last name then first name, case-insensitively, and then by
// ID. The input is left untouched.
func SortByScore(candidates []models.ScoredCandidate) []models.ScoredCandidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, compareScored)
	return sorted
}

func compareScored(a, b models.ScoredCandidate) int {
	if a.MatchScore != b.MatchScore {
		if a.MatchScore > b.MatchScore {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.SortName(), b.SortName()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
