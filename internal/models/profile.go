package models

import (
	"strings"
	"time"
)

// Gender of a profile.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid checks if the gender is one of the known values.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Opposite returns the other gender, or "" when unknown.
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return ""
	}
}

// NormalizeGender accepts the common spellings found in imports.
func NormalizeGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "man", "groom":
		return GenderMale
	case "f", "female", "woman", "bride":
		return GenderFemale
	default:
		return Gender(strings.ToLower(strings.TrimSpace(s)))
	}
}

// DateLayout is the wire and CSV format of dates of birth.
const DateLayout = "2006-01-02"

// Profile is a candidate as seen by the scorer. Optional attributes are
// pointers; a nil attribute makes the matching dimension be skipped.
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email,omitempty"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      Gender     `json:"gender,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Age         *int       `json:"age,omitempty"`
	Height      *float64   `json:"height,omitempty"`
	District    *string    `json:"district,omitempty"`
	Religion    *string    `json:"religion,omitempty"`
	Caste       *string    `json:"caste,omitempty"`
	Education   *string    `json:"education,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AgeAt returns the age in whole years on the given day.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AgeOn resolves the age used for matching: the precomputed age, then the
// age derived from the date of birth, then 0.
func (p *Profile) AgeOn(now time.Time) int {
	if p.Age != nil {
		return *p.Age
	}
	if p.DateOfBirth != nil {
		return AgeAt(*p.DateOfBirth, now)
	}
	return 0
}

// WithDerivedAge returns a copy with Age filled from the date of birth.
func (p Profile) WithDerivedAge(now time.Time) Profile {
	if p.Age == nil && p.DateOfBirth != nil {
		age := AgeAt(*p.DateOfBirth, now)
		p.Age = &age
	}
	return p
}

// Public returns a copy safe to show to other users.
func (p Profile) Public() Profile {
	p.Email = ""
	return p
}

// SortName is the case-insensitive key used to order equally scored candidates.
func (p *Profile) SortName() string {
	return strings.ToLower(p.LastName + p.FirstName)
}

// CandidateFilter narrows the pool of profiles a user browses.
type CandidateFilter struct {
	ExcludeID string
	Gender    Gender
	Limit     int
}

// ProfileInput is the payload for creating or replacing a profile.
type ProfileInput struct {
	Email       string   `json:"email" validate:"required,email"`
	FirstName   string   `json:"first_name" validate:"required,max=100"`
	LastName    string   `json:"last_name" validate:"required,max=100"`
	Gender      Gender   `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Height      *float64 `json:"height" validate:"omitempty,gte=50,lte=260"`
	District    *string  `json:"district" validate:"omitempty,max=100"`
	Religion    *string  `json:"religion" validate:"omitempty,max=100"`
	Caste       *string  `json:"caste" validate:"omitempty,max=100"`
	Education   *string  `json:"education" validate:"omitempty,max=100"`
	Bio         string   `json:"bio" validate:"max=2000"`
}

// ToProfile converts the input into an active profile with the given ID.
func (in *ProfileInput) ToProfile(id string) (*Profile, error) {
	p := &Profile{
		ID:        id,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Gender:    in.Gender,
		Height:    in.Height,
		District:  trimmed(in.District),
		Religion:  trimmed(in.Religion),
		Caste:     trimmed(in.Caste),
		Education: trimmed(in.Education),
		Bio:       in.Bio,
		IsActive:  true,
	}

	if in.DateOfBirth != "" {
		dob, err := time.Parse(DateLayout, in.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateOfBirth
		}
		p.DateOfBirth = &dob
	}

	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return StringPtr(strings.TrimSpace(*s))
}

// Dimension names one scored attribute.
type Dimension string

const (
	DimensionAge       Dimension = "age"
	DimensionHeight    Dimension = "height"
	DimensionLocation  Dimension = "location"
	DimensionReligion  Dimension = "religion"
	DimensionCaste     Dimension = "caste"
	DimensionEducation Dimension = "education"
)

// Outcome of one dimension evaluation.
type Outcome string

const (
	OutcomeMatch   Outcome = "match"
	OutcomeBuffer  Outcome = "buffer"
	OutcomeMiss    Outcome = "miss"
	OutcomeSkipped Outcome = "skipped"
)

// DimensionScore is the contribution of one dimension to a match score.
type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Achieved  float64   `json:"achieved"`
	Possible  float64   `json:"possible"`
	Outcome   Outcome   `json:"outcome"`
}

// ScoredCandidate is a profile copy annotated with its match score. It is
// computed on demand and never stored.
type ScoredCandidate struct {
	Profile
	MatchScore int              `json:"match_score"`
	Breakdown  []DimensionScore `json:"breakdown,omitempty"`
}

// BulkInsertResult contains the results of a bulk insert operation.
type BulkInsertResult struct {
	InsertedCount int      `json:"inserted_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}
