package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/services/importer"
	"matrimony-match-engine/internal/utils"
)

func loadPreferences(path string) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	if err := readJSON(path, &prefs); err != nil {
		return nil, err
	}
	if err := models.ValidatePreferences(&prefs); err != nil {
		return nil, fmt.Errorf("invalid preferences in %s: %w", path, err)
	}
	return &prefs, nil
}

func loadCandidate(path string) (*models.Profile, error) {
	var p models.Profile
	if err := readJSON(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// loadCandidates reads a JSON array of profiles, or an import CSV when the
// file ends in .csv. Invalid CSV rows are logged and skipped.
func loadCandidates(path string) ([]*models.Profile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		var profiles []*models.Profile
		if err := readJSON(path, &profiles); err != nil {
			return nil, err
		}
		return profiles, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	profiles, errs := importer.NewParser().ParseProfiles(f)
	logger := utils.GetLogger()
	for _, e := range errs {
		logger.Warn("Skipping CSV row", utils.String("file", path), utils.Error(e))
	}
	if len(profiles) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("no valid profiles in %s: %w", path, errs[0])
	}
	return profiles, nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
