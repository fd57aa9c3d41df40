// Package importer loads profile CSV files into the profile store.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

// Parser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns must be present in every import file.
var RequiredColumns = []string{
	"email",
	"first_name",
	"last_name",
}

// ColumnAliases maps alternative headers to standard column names.
var ColumnAliases = map[string]string{
	"external_id": "id",
	"profile_id":  "id",
	"uuid":        "id",

	"emailaddress":  "email",
	"email_address": "email",
	"mail":          "email",

	"firstname":  "first_name",
	"first name": "first_name",
	"given_name": "first_name",
	"lastname":   "last_name",
	"last name":  "last_name",
	"surname":    "last_name",

	"sex": "gender",

	"dob":           "date_of_birth",
	"birth_date":    "date_of_birth",
	"birthdate":     "date_of_birth",
	"date of birth": "date_of_birth",

	"height_cm": "height",

	"city":     "district",
	"location": "district",

	"faith":     "religion",
	"community": "caste",

	"qualification":   "education",
	"education_level": "education",
}

// RowError reports a rejected CSV line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Parser turns CSV content into profiles.
type Parser struct {
	columnMapping map[string]int
}

// NewParser creates a new CSV parser.
func NewParser() *Parser {
	return &Parser{columnMapping: make(map[string]int)}
}

// ParseProfiles reads every row of r. Rows that fail to parse or validate are
// returned as RowErrors and do not stop the parse.
func (p *Parser) ParseProfiles(r io.Reader) ([]*models.Profile, []error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, []error{ErrEmptyCSV}
	}
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var profiles []*models.Profile
	var parseErrors []error
	seen := make(map[string]int)
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, &RowError{Line: lineNum, Err: err})
			continue
		}
		if blank(record) {
			continue
		}

		profile, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, &RowError{Line: lineNum, Err: err})
			continue
		}

		key := strings.ToLower(profile.Email)
		if first, ok := seen[key]; ok {
			parseErrors = append(parseErrors, &RowError{
				Line: lineNum,
				Err:  fmt.Errorf("duplicate email %s (first seen on line %d)", profile.Email, first),
			})
			continue
		}
		seen[key] = lineNum

		profiles = append(profiles, profile)
	}

	if len(profiles) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return profiles, parseErrors
}

func (p *Parser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}
		p.columnMapping[normalized] = i
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

func (p *Parser) parseRow(record []string) (*models.Profile, error) {
	get := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	optional := func(column string) *string {
		v := get(column)
		if v == "" {
			return nil
		}
		return &v
	}

	input := models.ProfileInput{
		Email:       get("email"),
		FirstName:   get("first_name"),
		LastName:    get("last_name"),
		DateOfBirth: get("date_of_birth"),
		District:    optional("district"),
		Religion:    optional("religion"),
		Caste:       optional("caste"),
		Education:   optional("education"),
	}

	if g := get("gender"); g != "" {
		input.Gender = models.NormalizeGender(g)
	}

	if h := get("height"); h != "" {
		height, err := parseHeight(h)
		if err != nil {
			return nil, fmt.Errorf("invalid height: %w", err)
		}
		input.Height = &height
	}

	if err := utils.ValidateStruct(&input); err != nil {
		return nil, err
	}

	id := get("id")
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid id %q: must be a UUID", id)
	}

	return input.ToProfile(id)
}

// parseHeight accepts centimetres with an optional "cm" suffix.
func parseHeight(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "cm"))
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
