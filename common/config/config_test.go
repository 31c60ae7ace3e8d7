package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	cases := map[string][]string{
		"basic_completion":                      {"basic_completion"},
		"a,b":                                   {"a", "b"},
		"a; b \n c":                             {"a", "b", "c"},
		"  a  ,  b   ":                          {"a", "b"},
		"a\n\nb":                                {"a", "b"},
		"a b":                                   {"a", "b"},
		"":                                      nil,
		"   ":                                   nil,
		"streaming,invalid_schema,,tool_call,;": {"streaming", "invalid_schema", "tool_call"},
	}
	for input, want := range cases {
		require.Equal(t, want, ParseList(input), "input %q", input)
	}
}

func TestLoadDefaults(t *testing.T) {
	got := Load()
	require.Equal(t, DefaultLocalBaseURL, got.LocalBaseURL)
	require.Equal(t, DefaultLocalModel, got.LocalModel)
	require.Equal(t, DefaultReferenceModel, got.ReferenceModel)
	require.Equal(t, time.Duration(DefaultTimeoutSeconds)*time.Second, got.Timeout)
	require.Nil(t, got.Scenarios)
	require.False(t, got.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOCAL_OPENAI_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("LOCAL_MODEL", "tiny")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("CLIENT_TIMEOUT", "5")
	t.Setenv("SCENARIOS", "basic_completion,streaming")
	t.Setenv("DEBUG", "true")

	got := Load()
	require.Equal(t, "http://127.0.0.1:9999", got.LocalBaseURL)
	require.Equal(t, "tiny", got.LocalModel)
	require.Equal(t, "gpt-4o-mini", got.ReferenceModel)
	require.Equal(t, 5*time.Second, got.Timeout)
	require.Equal(t, []string{"basic_completion", "streaming"}, got.Scenarios)
	require.True(t, got.Debug)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Timeout: time.Second, SkipReference: true}
	require.NoError(t, cfg.Validate())

	cfg = &Config{Timeout: time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg = &Config{Timeout: time.Second, ReferenceAPIKey: "sk-test"}
	require.NoError(t, cfg.Validate())

	cfg = &Config{SkipLocal: true, SkipReference: true, Timeout: time.Second}
	require.Error(t, cfg.Validate())

	cfg = &Config{SkipReference: true}
	require.Error(t, cfg.Validate())
}
