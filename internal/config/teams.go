package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/histblame/internal/errors"
	"github.com/rohankatakam/histblame/internal/models"
)

// LoadTeammates reads the team directory. The format follows the file
// extension: .yaml/.yml is YAML, anything else JSON. Both hold a list of
// {fullname, email, team} records. An empty path yields an empty directory.
func LoadTeammates(path string) ([]models.Teammate, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "read team directory %s", path)
	}

	var teammates []models.Teammate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &teammates)
	default:
		err = json.Unmarshal(data, &teammates)
	}
	if err != nil {
		return nil, errors.ConfigErrorf("parse team directory %s: %v", path, err)
	}

	return teammates, nil
}
