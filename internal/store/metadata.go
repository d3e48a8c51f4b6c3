package store

import (
	"database/sql"
)

// PlatformInfo describes the deployed instance; it is written at startup and
// included in exported documents.
type PlatformInfo struct {
	Name         string `json:"name"`
	DefaultModel string `json:"default_model"`
	Locale       string `json:"locale"`
}

// SetMetadata upserts a key-value pair in the platform_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO platform_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM platform_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetPlatformInfo stores all PlatformInfo fields as metadata rows.
func (s *Store) SetPlatformInfo(info PlatformInfo) error {
	pairs := []struct{ k, v string }{
		{"name", info.Name},
		{"default_model", info.DefaultModel},
		{"locale", info.Locale},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetPlatformInfo reads all PlatformInfo fields from metadata.
func (s *Store) GetPlatformInfo() (PlatformInfo, error) {
	var info PlatformInfo
	var err error

	if info.Name, err = s.GetMetadata("name"); err != nil {
		return info, err
	}
	if info.DefaultModel, err = s.GetMetadata("default_model"); err != nil {
		return info, err
	}
	if info.Locale, err = s.GetMetadata("locale"); err != nil {
		return info, err
	}
	return info, nil
}
