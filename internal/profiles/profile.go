// Package profiles holds the versioned bank-profile registry: per-bank column
// vocabularies, detection rules, account-identity patterns and the locked
// atomic update path used by the auto-learner.
package profiles

import (
	"fmt"
	"regexp"
)

// GenericProfileName is the universal fallback profile. It must exist in every
// registry file, is never produced by the auto-learner and can never be
// overwritten.
const GenericProfileName = "GENERIC"

// BankProfile is an immutable per-bank layout description. Token lists are
// lowercase vocabularies matched against header lines; date order is the trial
// order for ambiguous numeric dates; the account patterns are capture-group
// regular expressions.
type BankProfile struct {
	Name                  string   `json:"-"`
	DateTokens            []string `json:"date_tokens"`
	DescriptionTokens     []string `json:"description_tokens"`
	DebitTokens           []string `json:"debit_tokens"`
	CreditTokens          []string `json:"credit_tokens"`
	BalanceTokens         []string `json:"balance_tokens"`
	DateOrder             []string `json:"date_order"`
	NoiseTokens           []string `json:"noise_tokens"`
	OCRBackends           []string `json:"ocr_backends"`
	AccountNamePatterns   []string `json:"account_name_patterns"`
	AccountNumberPatterns []string `json:"account_number_patterns"`
}

// DetectionRule maps page text to a profile. A page matches when it contains
// any of ContainsAny, or all of ContainsAll; exactly one of the two lists must
// be non-empty. Rules are evaluated in registration order, first match wins.
type DetectionRule struct {
	Profile     string   `json:"profile"`
	ContainsAny []string `json:"contains_any"`
	ContainsAll []string `json:"contains_all"`
}

// Valid reports whether the rule has exactly one non-empty match list.
func (r DetectionRule) Valid() bool {
	return (len(r.ContainsAny) > 0) != (len(r.ContainsAll) > 0)
}

// Equal reports whether two rules have identical match lists.
func (r DetectionRule) Equal(other DetectionRule) bool {
	return stringSlicesEqual(r.ContainsAny, other.ContainsAny) &&
		stringSlicesEqual(r.ContainsAll, other.ContainsAll)
}

// registryFile is the on-disk JSON shape of the registry.
type registryFile struct {
	Profiles       map[string]BankProfile `json:"profiles"`
	DetectionRules []DetectionRule        `json:"detection_rules"`
}

// RegistryError describes a registry load or update failure. Reason is a
// stable machine-readable code surfaced in learner diagnostics.
type RegistryError struct {
	Op     string
	Path   string
	Reason string
	Err    error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profiles %s %s: %s: %v", e.Op, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("profiles %s %s: %s", e.Op, e.Path, e.Reason)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// CompilePattern compiles an identity pattern case-insensitively in multiline
// mode, wrapping it in a capture group when it has none so callers can always
// read group 1.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		re, err = regexp.Compile("(?im)(" + pattern + ")")
		if err != nil {
			return nil, err
		}
	}
	return re, nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
