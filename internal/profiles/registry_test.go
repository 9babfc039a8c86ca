package profiles

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankstmt/statement-core/internal/logging"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.json")
	registry, err := NewRegistry(path, &logging.MockLogger{})
	require.NoError(t, err)
	return registry
}

func TestNewRegistrySeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.json")
	registry, err := NewRegistry(path, &logging.MockLogger{})
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "registry file should be seeded on disk")

	generic, ok := registry.Profile(GenericProfileName)
	require.True(t, ok)
	assert.Equal(t, GenericProfileName, generic.Name)
	assert.NotEmpty(t, generic.DateTokens)
	assert.NotEmpty(t, generic.BalanceTokens)
}

func TestNewRegistryRejectsMissingGeneric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	content := `{"profiles":{"SOMEBANK":{"date_tokens":["date"]}},"detection_rules":[]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewRegistry(path, &logging.MockLogger{})
	require.Error(t, err)
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "missing_generic_profile", regErr.Reason)
}

func TestDetect(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		name     string
		pageText string
		expected string
	}{
		{"Chinabank by name", "CHINABANK Statement of Account", "CHINABANK"},
		{"BPI padded token at text start", "BPI EXPRESS TELLER statement", "BPI"},
		{"BPI full name", "BANK OF THE PHILIPPINE ISLANDS", "BPI"},
		{"Unionbank via transaction id", "Transaction ID 7748812", "UNIONBANK"},
		{"Maybank via posting date", "POSTING DATE DESCRIPTION", "MAYBANK"},
		{"EastWest needs both tokens", "BOOK DATE ... CLOSING BALANCE", "EWB"},
		{"EastWest single token is not enough", "BOOK DATE only here", "GENERIC"},
		{"AUB by check column", "Check No. Description", "AUB_BDO"},
		{"AUB by tc column code", "DATE TC DESCRIPTION DEBIT", "AUB_BDO"},
		{"BDO by name", "BDO Unibank, Inc.", "AUB_BDO"},
		{"Rule order wins", "chinabank and bdo mentioned", "CHINABANK"},
		{"Unknown bank", "Some Rural Cooperative Statement", "GENERIC"},
		{"Empty text", "", "GENERIC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, registry.Detect(tc.pageText).Name)
		})
	}
}

func TestApplyRoundTrip(t *testing.T) {
	registry := newTestRegistry(t)

	profile := BankProfile{
		Name:          "AUTO_TESTBANK",
		DateTokens:    []string{"date"},
		DebitTokens:   []string{"debit"},
		CreditTokens:  []string{"credit"},
		BalanceTokens: []string{"balance"},
		DateOrder:     []string{"mdy"},
	}
	rule := DetectionRule{Profile: "AUTO_TESTBANK", ContainsAny: []string{"testbank"}}

	require.NoError(t, registry.Apply(profile, rule))

	// Live immediately without an explicit reload.
	got, ok := registry.Profile("AUTO_TESTBANK")
	require.True(t, ok)
	assert.Equal(t, []string{"date"}, got.DateTokens)
	assert.Equal(t, "AUTO_TESTBANK", registry.Detect("Welcome to TESTBANK").Name)

	// Persisted: a second registry on the same path sees it too.
	reloaded, err := NewRegistry(registry.Path(), &logging.MockLogger{})
	require.NoError(t, err)
	_, ok = reloaded.Profile("AUTO_TESTBANK")
	assert.True(t, ok)
}

func TestApplyRejectsGenericAndDuplicates(t *testing.T) {
	registry := newTestRegistry(t)
	rule := DetectionRule{Profile: GenericProfileName, ContainsAny: []string{"x"}}

	err := registry.Apply(BankProfile{Name: GenericProfileName}, rule)
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "invalid_profile_name", regErr.Reason)

	profile := BankProfile{Name: "AUTO_DUP", DateOrder: []string{"mdy"}}
	dupRule := DetectionRule{Profile: "AUTO_DUP", ContainsAny: []string{"dup bank"}}
	require.NoError(t, registry.Apply(profile, dupRule))

	err = registry.Apply(profile, dupRule)
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "profile_already_exists", regErr.Reason)
}

func TestApplyRejectsInvalidRule(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Apply(BankProfile{Name: "AUTO_NORULE"}, DetectionRule{Profile: "AUTO_NORULE"})
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "empty_detection_rule", regErr.Reason)

	both := DetectionRule{
		Profile:     "AUTO_NORULE",
		ContainsAny: []string{"a"},
		ContainsAll: []string{"b"},
	}
	err = registry.Apply(BankProfile{Name: "AUTO_NORULE"}, both)
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "empty_detection_rule", regErr.Reason)
}

func TestApplyConcurrent(t *testing.T) {
	registry := newTestRegistry(t)

	names := []string{"AUTO_BANK_A", "AUTO_BANK_B", "AUTO_BANK_C", "AUTO_BANK_D"}
	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			profile := BankProfile{Name: name, DateOrder: []string{"mdy"}}
			rule := DetectionRule{Profile: name, ContainsAny: []string{strings.ToLower(name)}}
			errs[i] = registry.Apply(profile, rule)
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "apply %s", names[i])
	}

	raw, err := os.ReadFile(registry.Path())
	require.NoError(t, err)
	var file registryFile
	require.NoError(t, json.Unmarshal(raw, &file))
	for _, name := range names {
		_, ok := file.Profiles[name]
		assert.True(t, ok, "profile %s must survive concurrent writers", name)
	}
	assert.Len(t, file.DetectionRules, 7+len(names))
}

func TestDetectionRuleValid(t *testing.T) {
	assert.True(t, DetectionRule{ContainsAny: []string{"a"}}.Valid())
	assert.True(t, DetectionRule{ContainsAll: []string{"a", "b"}}.Valid())
	assert.False(t, DetectionRule{}.Valid())
	assert.False(t, DetectionRule{ContainsAny: []string{"a"}, ContainsAll: []string{"b"}}.Valid())
}

func TestCompilePattern(t *testing.T) {
	re, err := CompilePattern(`account\s*name\s*[:\-]?\s*([A-Z ]{3,40})`)
	require.NoError(t, err)
	m := re.FindStringSubmatch("ACCOUNT NAME: JUAN DELA CRUZ")
	require.NotNil(t, m)
	assert.Equal(t, "JUAN DELA CRUZ", m[1])

	// Group-less patterns get wrapped so group 1 always exists.
	re, err = CompilePattern(`savings account`)
	require.NoError(t, err)
	m = re.FindStringSubmatch("Premium SAVINGS ACCOUNT statement")
	require.NotNil(t, m)
	assert.Equal(t, "SAVINGS ACCOUNT", m[1])

	_, err = CompilePattern(`([unclosed`)
	assert.Error(t, err)
}
