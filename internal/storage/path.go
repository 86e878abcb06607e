package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildArtifactKey lays out knowledge-base artifacts by embedding model and
// build date so a newer indexer run never overwrites an older artifact.
func BuildArtifactKey(embedModel string, builtAt time.Time) (string, error) {
	if err := validatePathComponent(embedModel, "embed model"); err != nil {
		return "", err
	}
	ts := builtAt.UTC()
	return path.Join(
		"knowledge",
		embedModel,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		"context-items.parquet",
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
