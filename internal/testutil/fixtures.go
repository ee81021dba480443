package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ResnikSample is the English reference sentence.
const ResnikSample = "Resnik was the fourth woman and second American woman to fly in space, " +
	"logging 145 hours in orbit. With a PhD in electrical engineering, she worked for RCA as an " +
	"engineer on Navy missile and radar projects, and for Xerox as a senior systems engineer."

// TestFixture is a sample text with its expected routing.
type TestFixture struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Text        string `json:"text"`
	// Branch is one of alphabet, korean, japanese, fallback.
	Branch string `json:"branch"`
	// Codes is set for rule-based branches only; the alphabet branch depends
	// on the model.
	Codes []string `json:"codes,omitempty"`
}

// SampleFixtures returns the built-in routing fixtures.
func SampleFixtures() []TestFixture {
	return []TestFixture{
		{
			Name:        "resnik",
			Description: "English reference sentence",
			Text:        ResnikSample,
			Branch:      "alphabet",
		},
		{
			Name:        "mixed_latin",
			Description: "Latin citation with some Hangul",
			Text:        "Resnik, Philip. 1998. 한국어 a description of language.",
			Branch:      "alphabet",
		},
		{
			Name:        "korean",
			Description: "Hangul sentence",
			Text:        "안녕하세요 반갑습니다",
			Branch:      "korean",
			Codes:       []string{"ko"},
		},
		{
			Name:        "japanese",
			Description: "Kana sentence",
			Text:        "こんにちは、げんきですか",
			Branch:      "japanese",
			Codes:       []string{"jp"},
		},
		{
			Name:        "digits",
			Description: "No class reaches the threshold",
			Text:        "1234567890",
			Branch:      "japanese",
			Codes:       []string{"jp"},
		},
		{
			Name:        "cyrillic",
			Description: "Unsupported script falls through to jp",
			Text:        "привет мир",
			Branch:      "japanese",
			Codes:       []string{"jp"},
		},
	}
}

// LoadFixture loads a test fixture from JSON file.
func LoadFixture(t *testing.T, name string) TestFixture {
	t.Helper()

	fixturePath := filepath.Join(GetFixturesDir(t), name+".json")

	data, err := os.ReadFile(fixturePath) //nolint:gosec // G304: Reading test fixture files with controlled paths
	require.NoError(t, err, "Failed to read fixture file: %s", fixturePath)

	var fixture TestFixture
	err = json.Unmarshal(data, &fixture)
	require.NoError(t, err, "Failed to unmarshal fixture JSON")

	return fixture
}

// SaveFixture saves a test fixture to dir as JSON.
func SaveFixture(t *testing.T, dir string, fixture TestFixture) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))
	fixturePath := filepath.Join(dir, fixture.Name+".json")

	data, err := json.MarshalIndent(fixture, "", "  ")
	require.NoError(t, err, "Failed to marshal fixture to JSON")

	err = os.WriteFile(fixturePath, data, 0o600)
	require.NoError(t, err, "Failed to write fixture file: %s", fixturePath)
	return fixturePath
}

// ValidateFixture checks the fixture's required fields.
func ValidateFixture(t *testing.T, fixture TestFixture) {
	t.Helper()

	require.NotEmpty(t, fixture.Name, "Fixture name should not be empty")
	require.Contains(t, []string{"alphabet", "korean", "japanese", "fallback"}, fixture.Branch)
	if fixture.Branch != "fallback" {
		require.NotEmpty(t, fixture.Text, "Fixture text should not be empty")
	}
	if fixture.Branch == "korean" || fixture.Branch == "japanese" {
		require.NotEmpty(t, fixture.Codes, "Rule-based fixtures need codes")
	}
}
