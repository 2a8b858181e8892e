package models

import (
	"fmt"
	"strings"
	"time"
)

// versionTimeLayout is the timestamp embedded in version ids: v_YYMMDD_HHMMSS.
// Lexical order of well-formed ids matches chronological order within a
// century, but callers must always compare parsed CreatedAt, not strings.
const versionTimeLayout = "060102_150405"

// ModelVersion identifies one trained artifact in the registry.
type ModelVersion struct {
	Name      string             `json:"name"`
	VersionID string             `json:"version_id"`
	CreatedAt time.Time          `json:"created_at"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	// Artifact is the serialized trained model. The registry owns the
	// persisted copy; pipelines hold transient references only.
	Artifact []byte `json:"-"`
}

// NewVersionID encodes a creation time as a version id.
func NewVersionID(t time.Time) string {
	return "v_" + t.UTC().Format(versionTimeLayout)
}

// ParseVersionTime derives the creation time from a version id without a
// registry round-trip. Accepts both "v_YYMMDD_HHMMSS" and bare
// "YYMMDD_HHMMSS" forms.
func ParseVersionTime(versionID string) (time.Time, error) {
	s := strings.TrimPrefix(versionID, "v_")
	t, err := time.Parse(versionTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse version id %q: %w", versionID, err)
	}
	return t.UTC(), nil
}

// Newer reports whether v should be considered more recent than other.
// Ties on CreatedAt fall back to the lexically larger VersionID so that
// "latest" is deterministic across registry implementations.
func (v ModelVersion) Newer(other ModelVersion) bool {
	if !v.CreatedAt.Equal(other.CreatedAt) {
		return v.CreatedAt.After(other.CreatedAt)
	}
	return v.VersionID > other.VersionID
}
