package models

import (
	"strings"
	"time"

	"matrimony-match-engine/internal/utils"
)

// WeightedCriterion is the importance a user attaches to one dimension.
// A disabled criterion is ignored by the scorer regardless of its weight.
type WeightedCriterion struct {
	Weight  int  `json:"weight" validate:"gte=0,lte=100"`
	Enabled bool `json:"enabled"`
}

// RangePreference is an inclusive numeric range, used for age (years) and height (cm).
type RangePreference struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
	WeightedCriterion
}

// Contains reports whether v lies inside [Min, Max].
func (r RangePreference) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// LocationPreference lists acceptable districts. An empty list accepts any district.
type LocationPreference struct {
	Districts []string `json:"districts" validate:"dive,required"`
	WeightedCriterion
}

// Accepts reports whether district satisfies the preference.
func (l LocationPreference) Accepts(district string) bool {
	if len(l.Districts) == 0 {
		return true
	}
	for _, d := range l.Districts {
		if d == district {
			return true
		}
	}
	return false
}

// CategoricalPreference is a single preferred value. A nil Value means "no preference".
type CategoricalPreference struct {
	Value *string `json:"value"`
	WeightedCriterion
}

// UserPreferences is the full preference record of one user. It is always
// written as a whole; there is no partial update and no history.
type UserPreferences struct {
	UserID      string                `json:"user_id"`
	AgeRange    RangePreference       `json:"age_range"`
	HeightRange RangePreference       `json:"height_range"`
	Locations   LocationPreference    `json:"locations"`
	Religion    CategoricalPreference `json:"religion"`
	Caste       CategoricalPreference `json:"caste"`
	Education   CategoricalPreference `json:"education"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ValidatePreferences trims the categorical values, turning blank ones into
// "no preference", then rejects inverted ranges and weights outside [0, 100].
func ValidatePreferences(p *UserPreferences) error {
	for _, c := range []*CategoricalPreference{&p.Religion, &p.Caste, &p.Education} {
		if c.Value != nil {
			c.Value = StringPtr(strings.TrimSpace(*c.Value))
		}
	}
	return utils.ValidateStruct(p)
}

// DefaultPreferences returns a record with every dimension disabled.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:      userID,
		AgeRange:    RangePreference{Min: 18, Max: 60},
		HeightRange: RangePreference{Min: 120, Max: 220},
	}
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
