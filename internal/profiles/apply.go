package profiles

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"bankstmt/statement-core/internal/logging"
)

// Apply appends a profile and its detection rule to the registry file as one
// transactional update: take an exclusive file lock, re-read the file fresh
// (a concurrent writer may have changed it since our snapshot), append, write
// a temp file in the same directory and rename it over the original. The file
// is always either the old or the new valid version, never partial.
//
// The in-memory snapshot is reloaded on success so the new profile is usable
// immediately. GENERIC can never be overwritten.
func (r *Registry) Apply(profile BankProfile, rule DetectionRule) error {
	if profile.Name == "" || profile.Name == GenericProfileName {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "invalid_profile_name"}
	}
	if !rule.Valid() {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "empty_detection_rule"}
	}

	// A sidecar lock file survives the rename of the registry file itself,
	// so two writers can never hold the lock on different inodes.
	lock := flock.New(r.path + ".lock")
	if err := lock.Lock(); err != nil {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "lock_failed", Err: err}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.log.WithError(err).Warn("Failed to release registry lock",
				logging.Field{Key: logging.FieldPath, Value: r.path})
		}
	}()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RegistryError{Op: "apply", Path: r.path, Reason: "config_missing", Err: err}
		}
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_unreadable", Err: err}
	}

	var file registryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_invalid_json", Err: err}
	}
	if file.Profiles == nil {
		file.Profiles = map[string]BankProfile{}
	}
	if _, exists := file.Profiles[profile.Name]; exists {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "profile_already_exists"}
	}

	file.Profiles[profile.Name] = profile
	file.DetectionRules = append(file.DetectionRules, rule)

	updated, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_write_failed", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".profiles-*.json")
	if err != nil {
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_write_failed", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(updated); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_write_failed", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_write_failed", Err: err}
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return &RegistryError{Op: "apply", Path: r.path, Reason: "config_write_failed", Err: err}
	}

	r.log.Info("Profile appended to registry",
		logging.Field{Key: logging.FieldProfile, Value: profile.Name},
		logging.Field{Key: logging.FieldPath, Value: r.path})

	return r.Reload()
}
