package matcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrimony-match-engine/internal/models"
)

var fixedNow = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

func testScorer() *Scorer {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return NewScorer(opts)
}

func enabled(weight int) models.WeightedCriterion {
	return models.WeightedCriterion{Weight: weight, Enabled: true}
}

// scenarioPreferences: age 25-35 w70, Colombo w80, Buddhist w60, everything else disabled.
func scenarioPreferences() *models.UserPreferences {
	return &models.UserPreferences{
		UserID:      "viewer",
		AgeRange:    models.RangePreference{Min: 25, Max: 35, WeightedCriterion: enabled(70)},
		HeightRange: models.RangePreference{Min: 150, Max: 180, WeightedCriterion: models.WeightedCriterion{Weight: 50}},
		Locations:   models.LocationPreference{Districts: []string{"Colombo"}, WeightedCriterion: enabled(80)},
		Religion:    models.CategoricalPreference{Value: models.StringPtr("Buddhist"), WeightedCriterion: enabled(60)},
		Caste:       models.CategoricalPreference{Value: models.StringPtr("Govigama"), WeightedCriterion: models.WeightedCriterion{Weight: 30}},
		Education:   models.CategoricalPreference{Value: models.StringPtr("Degree"), WeightedCriterion: models.WeightedCriterion{Weight: 20}},
	}
}

// mockProfile creates a candidate with default values
func mockProfile(overrides map[string]interface{}) *models.Profile {
	age := 30
	p := &models.Profile{
		ID:        "c-1",
		FirstName: "Nimali",
		LastName:  "Perera",
		Gender:    models.GenderFemale,
		Age:       &age,
		District:  models.StringPtr("Colombo"),
		Religion:  models.StringPtr("Buddhist"),
		IsActive:  true,
	}

	if v, ok := overrides["id"]; ok {
		p.ID = v.(string)
	}
	if v, ok := overrides["first_name"]; ok {
		p.FirstName = v.(string)
	}
	if v, ok := overrides["last_name"]; ok {
		p.LastName = v.(string)
	}
	if v, ok := overrides["age"]; ok {
		if v == nil {
			p.Age = nil
		} else {
			a := v.(int)
			p.Age = &a
		}
	}
	if v, ok := overrides["dob"]; ok {
		d := v.(time.Time)
		p.DateOfBirth = &d
	}
	if v, ok := overrides["height"]; ok {
		h := v.(float64)
		p.Height = &h
	}
	if v, ok := overrides["district"]; ok {
		if v == nil {
			p.District = nil
		} else {
			p.District = models.StringPtr(v.(string))
		}
	}
	if v, ok := overrides["religion"]; ok {
		if v == nil {
			p.Religion = nil
		} else {
			p.Religion = models.StringPtr(v.(string))
		}
	}
	if v, ok := overrides["caste"]; ok {
		p.Caste = models.StringPtr(v.(string))
	}
	if v, ok := overrides["education"]; ok {
		p.Education = models.StringPtr(v.(string))
	}

	return p
}

func TestScore_ConcreteScenario(t *testing.T) {
	s := testScorer()
	prefs := scenarioPreferences()

	candidateA := mockProfile(nil)
	assert.Equal(t, 100, s.Score(prefs, candidateA))

	candidateB := mockProfile(map[string]interface{}{"age": 38, "district": "Galle"})

	// 38 sits in (35, 40]: 35 + 0 + 60 of 210
	ev := s.Evaluate(prefs, candidateB)
	assert.Equal(t, 210.0, ev.Possible)
	assert.Equal(t, 95.0, ev.Achieved)
	assert.Equal(t, 45, ev.Score)

	narrow := DefaultOptions()
	narrow.BufferWidth = 2
	narrow.Now = func() time.Time { return fixedNow }
	assert.Equal(t, 29, NewScorer(narrow).Score(prefs, candidateB), "60/210 once 38 falls outside the buffer")
}

func TestScore_EmptyPreferencesYieldZero(t *testing.T) {
	s := testScorer()
	prefs := models.DefaultPreferences("viewer")

	candidates := []*models.Profile{
		mockProfile(nil),
		mockProfile(map[string]interface{}{"age": nil, "district": nil, "religion": nil}),
		{},
	}
	for _, c := range candidates {
		assert.Equal(t, 0, s.Score(&prefs, c))
	}
}

func TestScore_AllEnabledWeightsZero(t *testing.T) {
	prefs := scenarioPreferences()
	prefs.AgeRange.Weight = 0
	prefs.Locations.Weight = 0
	prefs.Religion.Weight = 0

	assert.Equal(t, 0, testScorer().Score(prefs, mockProfile(nil)))
}

func TestScore_FullMatchYields100(t *testing.T) {
	prefs := scenarioPreferences()
	prefs.HeightRange.Enabled = true
	prefs.Caste.Enabled = true
	prefs.Education.Enabled = true

	c := mockProfile(map[string]interface{}{"height": 165.0, "caste": "Govigama", "education": "Degree"})
	assert.Equal(t, 100, testScorer().Score(prefs, c))
}

func TestScore_DisabledDimensionHasNoInfluence(t *testing.T) {
	s := testScorer()
	c := mockProfile(map[string]interface{}{"district": "Galle"})

	prefs := scenarioPreferences()
	withLocation := s.Evaluate(prefs, c)
	assert.Equal(t, 210.0, withLocation.Possible)

	prefs.Locations.Enabled = false
	without := s.Evaluate(prefs, c)
	assert.Equal(t, 130.0, without.Possible)
	assert.Equal(t, 100, without.Score, "remaining dimensions all match")

	for _, d := range without.Breakdown {
		if d.Dimension == models.DimensionLocation {
			assert.Equal(t, models.OutcomeSkipped, d.Outcome)
			assert.Zero(t, d.Possible)
		}
	}
}

func TestScore_MissingCandidateFieldsAreSkipped(t *testing.T) {
	s := testScorer()
	prefs := scenarioPreferences()
	c := mockProfile(map[string]interface{}{"district": nil, "religion": nil})

	ev := s.Evaluate(prefs, c)
	assert.Equal(t, 70.0, ev.Possible, "only age is evaluated")
	assert.Equal(t, 100, ev.Score)
}

func TestScore_NullPreferredValueIsSkipped(t *testing.T) {
	s := testScorer()
	prefs := scenarioPreferences()
	prefs.Religion.Value = nil

	ev := s.Evaluate(prefs, mockProfile(map[string]interface{}{"religion": "Hindu"}))
	assert.Equal(t, 150.0, ev.Possible)
	assert.Equal(t, 100, ev.Score)
}

func TestScore_BlankPreferredValueIsSkipped(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		AgeRange: models.RangePreference{Min: 25, Max: 35, WeightedCriterion: enabled(70)},
		Religion: models.CategoricalPreference{Value: new(string), WeightedCriterion: enabled(60)},
	}

	ev := s.Evaluate(prefs, mockProfile(map[string]interface{}{"religion": "Hindu"}))
	assert.Equal(t, 70.0, ev.Possible)
	assert.Equal(t, 100, ev.Score)
	assert.Equal(t, models.OutcomeSkipped, ev.Breakdown[3].Outcome)
}

func TestScore_AgeWithoutDataCountsAsZero(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		AgeRange: models.RangePreference{Min: 25, Max: 35, WeightedCriterion: enabled(50)},
	}

	ev := s.Evaluate(prefs, mockProfile(map[string]interface{}{"age": nil}))
	assert.Equal(t, 50.0, ev.Possible, "age is evaluated even without data")
	assert.Equal(t, 0, ev.Score)
}

func TestScore_AgeDerivedFromDateOfBirth(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		AgeRange: models.RangePreference{Min: 25, Max: 35, WeightedCriterion: enabled(50)},
	}

	// 29 on fixedNow
	inRange := mockProfile(map[string]interface{}{"age": nil, "dob": time.Date(1994, time.December, 1, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, 100, s.Score(prefs, inRange))

	// 24 on fixedNow, one year below min
	buffer := mockProfile(map[string]interface{}{"age": nil, "dob": time.Date(1999, time.July, 2, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, 50, s.Score(prefs, buffer))
}

func TestScore_MonotonicBuffer(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		HeightRange: models.RangePreference{Min: 160, Max: 180, WeightedCriterion: enabled(40)},
	}

	at := s.Score(prefs, mockProfile(map[string]interface{}{"height": 160.0}))
	inBuffer := s.Score(prefs, mockProfile(map[string]interface{}{"height": 157.0}))
	outside := s.Score(prefs, mockProfile(map[string]interface{}{"height": 150.0}))

	assert.Equal(t, 100, at)
	assert.Equal(t, 50, inBuffer)
	assert.Equal(t, 0, outside)
	assert.GreaterOrEqual(t, at, inBuffer)
	assert.Greater(t, inBuffer, outside)
}

func TestScore_RangeBoundaries(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		HeightRange: models.RangePreference{Min: 160, Max: 180, WeightedCriterion: enabled(10)},
	}

	tests := []struct {
		height float64
		want   int
	}{
		{155, 50},
		{154.9, 0},
		{159.99, 50},
		{160, 100},
		{180, 100},
		{180.01, 50},
		{185, 50},
		{185.5, 0},
	}

	for _, tt := range tests {
		got := s.Score(prefs, mockProfile(map[string]interface{}{"height": tt.height}))
		assert.Equal(t, tt.want, got, "height %v", tt.height)
	}
}

func TestScore_CustomBufferCredit(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferCredit = 0.25
	opts.Now = func() time.Time { return fixedNow }
	s := NewScorer(opts)

	prefs := &models.UserPreferences{
		HeightRange: models.RangePreference{Min: 160, Max: 180, WeightedCriterion: enabled(40)},
	}
	assert.Equal(t, 25, s.Score(prefs, mockProfile(map[string]interface{}{"height": 182.0})))
}

func TestScore_EmptyDistrictSetMatchesAnyDistrict(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		Locations: models.LocationPreference{WeightedCriterion: enabled(80)},
	}

	for _, district := range []string{"Colombo", "Jaffna", "Trincomalee"} {
		ev := s.Evaluate(prefs, mockProfile(map[string]interface{}{"district": district}))
		assert.Equal(t, 80.0, ev.Achieved)
		assert.Equal(t, 100, ev.Score)
	}

	// no district on the candidate: dimension is skipped, not matched
	ev := s.Evaluate(prefs, mockProfile(map[string]interface{}{"district": nil}))
	assert.Zero(t, ev.Possible)
	assert.Equal(t, 0, ev.Score)
}

func TestScore_CategoricalIsExactMatch(t *testing.T) {
	s := testScorer()
	prefs := &models.UserPreferences{
		Religion: models.CategoricalPreference{Value: models.StringPtr("Buddhist"), WeightedCriterion: enabled(60)},
	}

	assert.Equal(t, 100, s.Score(prefs, mockProfile(map[string]interface{}{"religion": "Buddhist"})))
	assert.Equal(t, 0, s.Score(prefs, mockProfile(map[string]interface{}{"religion": "buddhist"})))
}

func TestScore_Rounding(t *testing.T) {
	s := testScorer()
	// 2 of 3 dimensions with equal weights: 66.67 -> 67
	prefs := &models.UserPreferences{
		Religion:  models.CategoricalPreference{Value: models.StringPtr("Buddhist"), WeightedCriterion: enabled(10)},
		Caste:     models.CategoricalPreference{Value: models.StringPtr("Karava"), WeightedCriterion: enabled(10)},
		Education: models.CategoricalPreference{Value: models.StringPtr("Degree"), WeightedCriterion: enabled(10)},
	}
	c := mockProfile(map[string]interface{}{"caste": "Govigama", "education": "Degree"})
	assert.Equal(t, 67, s.Score(prefs, c))
}

func TestScore_Deterministic(t *testing.T) {
	s := testScorer()
	prefs := scenarioPreferences()
	c := mockProfile(map[string]interface{}{"age": 37, "district": "Kandy"})

	first := s.Score(prefs, c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(prefs, c))
	}
}

func TestScore_ConcurrentUse(t *testing.T) {
	s := testScorer()
	prefs := scenarioPreferences()
	c := mockProfile(nil)

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Score(prefs, c)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 100, r)
	}
}

func TestEvaluate_BreakdownOrder(t *testing.T) {
	ev := testScorer().Evaluate(scenarioPreferences(), mockProfile(map[string]interface{}{"age": 38}))

	require.Len(t, ev.Breakdown, 6)
	want := []models.Dimension{
		models.DimensionAge, models.DimensionHeight, models.DimensionLocation,
		models.DimensionReligion, models.DimensionCaste, models.DimensionEducation,
	}
	for i, d := range ev.Breakdown {
		assert.Equal(t, want[i], d.Dimension)
	}
	assert.Equal(t, models.OutcomeBuffer, ev.Breakdown[0].Outcome)
	assert.Equal(t, 35.0, ev.Breakdown[0].Achieved)
	assert.Equal(t, models.OutcomeSkipped, ev.Breakdown[1].Outcome)
	assert.Equal(t, models.OutcomeMatch, ev.Breakdown[2].Outcome)
}

func TestScoreAll_DoesNotMutateInput(t *testing.T) {
	s := testScorer()
	a := mockProfile(map[string]interface{}{"id": "a"})
	b := mockProfile(map[string]interface{}{"id": "b", "district": "Galle"})
	before := *a

	scored := s.ScoreAll(scenarioPreferences(), []*models.Profile{a, nil, b}, false)

	require.Len(t, scored, 2)
	assert.Equal(t, "a", scored[0].ID)
	assert.Equal(t, 100, scored[0].MatchScore)
	assert.Nil(t, scored[0].Breakdown)
	assert.Less(t, scored[1].MatchScore, 100)
	assert.Equal(t, before, *a)
}

func TestScore_PackageDefault(t *testing.T) {
	assert.Equal(t, 100, Score(scenarioPreferences(), mockProfile(nil)))
}

func scored(id, first, last string, score int) models.ScoredCandidate {
	return models.ScoredCandidate{
		Profile:    models.Profile{ID: id, FirstName: first, LastName: last},
		MatchScore: score,
	}
}

func TestSortByScore_OrdersByScoreThenName(t *testing.T) {
	input := []models.ScoredCandidate{
		scored("1", "Kasun", "silva", 70),
		scored("2", "Amaya", "Fernando", 90),
		scored("3", "Dilan", "Silva", 70),
		scored("4", "Ruwan", "bandara", 70),
		scored("5", "Ishara", "Perera", 100),
	}

	got := SortByScore(input)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	// silva+dilan < silva+kasun, bandara first among the 70s
	assert.Equal(t, []string{"5", "2", "4", "3", "1"}, ids)
}

func TestSortByScore_DoesNotMutateInput(t *testing.T) {
	input := []models.ScoredCandidate{
		scored("1", "B", "B", 10),
		scored("2", "A", "A", 90),
	}
	snapshot := append([]models.ScoredCandidate(nil), input...)

	got := SortByScore(input)

	assert.Equal(t, snapshot, input)
	assert.Equal(t, "2", got[0].ID)
	got[0].MatchScore = 0
	assert.Equal(t, 90, input[1].MatchScore)
}

func TestSortByScore_DeterministicTieBreak(t *testing.T) {
	forward := []models.ScoredCandidate{
		scored("b", "Same", "Name", 50),
		scored("a", "Same", "Name", 50),
		scored("c", "Other", "Name", 50),
	}
	reversed := []models.ScoredCandidate{forward[2], forward[1], forward[0]}

	first := SortByScore(forward)
	second := SortByScore(reversed)

	assert.Equal(t, first, second)
	assert.Equal(t, "c", first[0].ID)
	assert.Equal(t, "a", first[1].ID)
	assert.Equal(t, "b", first[2].ID)
}

func TestSortByScore_Empty(t *testing.T) {
	assert.Empty(t, SortByScore(nil))
}
