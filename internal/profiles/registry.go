package profiles

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"bankstmt/statement-core/internal/logging"
)

// PathEnvVar overrides the registry file location when set.
const PathEnvVar = "STATEMENT_PROFILES_PATH"

//go:embed default_profiles.json
var defaultProfilesJSON []byte

// snapshot is an immutable view of the registry. Readers grab the current
// snapshot once per call; writers build a fresh one and swap the pointer, so
// a read never observes a partially rebuilt registry.
type snapshot struct {
	profiles map[string]BankProfile
	rules    []DetectionRule
}

// Registry is the process-wide bank profile registry backed by a JSON file.
// It is safe for concurrent use: detection and lookups read an atomically
// swapped snapshot, and on-disk mutation goes through Apply's file lock.
type Registry struct {
	path string
	log  logging.Logger
	snap atomic.Pointer[snapshot]
}

// ResolvePath returns the registry file location: explicit argument, then the
// STATEMENT_PROFILES_PATH environment variable, then the fixed default under
// the user config directory.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(PathEnvVar); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "profiles.json"
	}
	return filepath.Join(home, ".config", "statement-core", "profiles.json")
}

// NewRegistry loads the registry from path (resolved via ResolvePath),
// self-seeding from the packaged template when the file does not exist yet.
// A missing or invalid GENERIC profile is a hard failure: the registry cannot
// operate without its universal fallback.
func NewRegistry(path string, log logging.Logger) (*Registry, error) {
	if log == nil {
		log = &logging.MockLogger{}
	}
	r := &Registry{
		path: ResolvePath(path),
		log:  log,
	}
	if err := r.seedIfMissing(); err != nil {
		return nil, err
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the resolved registry file path.
func (r *Registry) Path() string {
	return r.path
}

func (r *Registry) seedIfMissing() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &RegistryError{Op: "stat", Path: r.path, Reason: "config_unreadable", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return &RegistryError{Op: "seed", Path: r.path, Reason: "config_parent_unwritable", Err: err}
	}
	if err := os.WriteFile(r.path, defaultProfilesJSON, 0o644); err != nil {
		return &RegistryError{Op: "seed", Path: r.path, Reason: "config_write_failed", Err: err}
	}
	r.log.Info("Seeded profile registry from packaged template",
		logging.Field{Key: logging.FieldPath, Value: r.path})
	return nil
}

// Reload re-reads the registry file and swaps in a fresh snapshot. Safe to
// call concurrently with detection and parsing.
func (r *Registry) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return &RegistryError{Op: "load", Path: r.path, Reason: "config_unreadable", Err: err}
	}

	var file registryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return &RegistryError{Op: "load", Path: r.path, Reason: "config_invalid_json", Err: err}
	}

	snap, err := buildSnapshot(file, r.path, r.log)
	if err != nil {
		return err
	}

	r.snap.Store(snap)
	r.log.Debug("Profile registry loaded",
		logging.Field{Key: logging.FieldPath, Value: r.path},
		logging.Field{Key: logging.FieldCount, Value: len(snap.profiles)})
	return nil
}

func buildSnapshot(file registryFile, path string, log logging.Logger) (*snapshot, error) {
	if len(file.Profiles) == 0 {
		return nil, &RegistryError{Op: "load", Path: path, Reason: "no_profiles"}
	}

	profiles := make(map[string]BankProfile, len(file.Profiles))
	for name, profile := range file.Profiles {
		profile.Name = name
		profiles[name] = profile
	}
	if _, ok := profiles[GenericProfileName]; !ok {
		return nil, &RegistryError{Op: "load", Path: path, Reason: "missing_generic_profile"}
	}

	rules := make([]DetectionRule, 0, len(file.DetectionRules))
	for _, rule := range file.DetectionRules {
		if !rule.Valid() {
			log.Warn("Skipping detection rule without exactly one match list",
				logging.Field{Key: logging.FieldRule, Value: rule.Profile})
			continue
		}
		if _, ok := profiles[rule.Profile]; !ok {
			log.Warn("Skipping detection rule for unknown profile",
				logging.Field{Key: logging.FieldRule, Value: rule.Profile})
			continue
		}
		rules = append(rules, rule)
	}

	return &snapshot{profiles: profiles, rules: rules}, nil
}

// Detect resolves the bank profile for a page. Rules run in registration
// order, first match wins; with no rule match a fixed header-token signature
// is checked before falling through to GENERIC. Never fails: empty or absent
// text yields GENERIC.
func (r *Registry) Detect(pageText string) BankProfile {
	snap := r.snap.Load()
	// Padded so word-boundary substrings like " bpi " match at line edges.
	lower := " " + strings.ToLower(pageText) + " "

	for _, rule := range snap.rules {
		if ruleMatches(rule, lower) {
			return snap.profiles[rule.Profile]
		}
	}

	// Hard-coded layout signature: the EastWest statement header carries both
	// tokens even when the bank name itself never survives OCR.
	if strings.Contains(lower, "book date") && strings.Contains(lower, "closing balance") {
		if profile, ok := snap.profiles["EWB"]; ok {
			return profile
		}
	}

	return snap.profiles[GenericProfileName]
}

func ruleMatches(rule DetectionRule, lowerText string) bool {
	if len(rule.ContainsAny) > 0 {
		for _, token := range rule.ContainsAny {
			if token != "" && strings.Contains(lowerText, token) {
				return true
			}
		}
		return false
	}
	for _, token := range rule.ContainsAll {
		if token == "" || !strings.Contains(lowerText, token) {
			return false
		}
	}
	return len(rule.ContainsAll) > 0
}

// Profile returns the named profile.
func (r *Registry) Profile(name string) (BankProfile, bool) {
	profile, ok := r.snap.Load().profiles[name]
	return profile, ok
}

// Generic returns the GENERIC fallback profile.
func (r *Registry) Generic() BankProfile {
	return r.snap.Load().profiles[GenericProfileName]
}

// Names returns all registered profile names.
func (r *Registry) Names() []string {
	snap := r.snap.Load()
	names := make([]string, 0, len(snap.profiles))
	for name := range snap.profiles {
		names = append(names, name)
	}
	return names
}

// Rules returns the detection rules in registration order.
func (r *Registry) Rules() []DetectionRule {
	snap := r.snap.Load()
	out := make([]DetectionRule, len(snap.rules))
	copy(out, snap.rules)
	return out
}
