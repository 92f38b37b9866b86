package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/store"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))
	v.SetEnvPrefix("CLAIMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newViper(t))
	require.NoError(t, err)

	if diff := cmp.Diff(model.DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults changed after decoding (-want +got):\n%s", diff)
	}
}

func TestDecodeConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CLAIMFLOW_SERVER_MAX_IN_FLIGHT", "4")
	t.Setenv("CLAIMFLOW_SERVER_RUN_LOG_TTL", "2h")
	t.Setenv("CLAIMFLOW_PIPELINE_MODE", "dynamic")
	t.Setenv("CLAIMFLOW_LLM_PROVIDER", "openai")
	t.Setenv("CLAIMFLOW_SCORING_LEVELS_CRITICAL", "55")

	cfg, err := decodeConfig(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Server.MaxInFlight)
	assert.Equal(t, 2*time.Hour, cfg.Server.RunLogTTL)
	assert.Equal(t, model.ModeDynamic, cfg.Pipeline.Mode)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 55.0, cfg.Scoring.Levels.Critical)
	assert.Equal(t, 50.0, cfg.Scoring.Levels.High, "untouched keys keep their defaults")
	assert.Equal(t, model.DefaultScoringConfig().Risk, cfg.Scoring.Risk)
}

func TestDecodeConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /var/lib/claimflow/results.json
scoring:
  levels:
    medium: 20
    high: 35
    critical: 55
`), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/claimflow/results.json", cfg.Store.Path)
	assert.Equal(t, model.LevelThresholds{Medium: 20, High: 35, Critical: 55}, cfg.Scoring.Levels)
	assert.Equal(t, ":3001", cfg.Server.Addr)
}

func TestDecodeConfig_UnknownMode(t *testing.T) {
	t.Setenv("CLAIMFLOW_PIPELINE_MODE", "adaptive")

	_, err := decodeConfig(newViper(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "adaptive"`)
}

func TestReadSubmission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"text":"burst pipe","claimFormData":{"id":"u-1","claimType":"property"}}`), 0o644))

	sub, err := readSubmission(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "burst pipe", sub.Text)
	assert.Equal(t, "u-1", sub.SubmitterID())

	sub, err = readSubmission(strings.NewReader(`{"text":"from stdin"}`), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", sub.Text)
	assert.Equal(t, model.AnonymousSubmitter, sub.SubmitterID())

	_, err = readSubmission(strings.NewReader(`not json`), "-")
	assert.ErrorContains(t, err, "decode submission")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "claimflow "+Version+"\n", stdout)
}

func TestConfigInit_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Cleanup(func() { configInitPath = "" })

	stdout, _, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created default configuration")

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	if diff := cmp.Diff(model.DefaultConfig(), cfg); diff != "" {
		t.Errorf("written file does not round-trip (-want +got):\n%s", diff)
	}

	_, _, err = execute(t, "config", "init", "--path", path)
	assert.ErrorContains(t, err, "already exists")
}

func TestConfigShow_RedactsAPIKey(t *testing.T) {
	t.Setenv("CLAIMFLOW_LLM_API_KEY", "sk-live-123")

	stdout, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "sk-live-123")
	assert.Contains(t, stdout, "********")
}

func TestResultsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim_results.json")
	t.Setenv("CLAIMFLOW_STORE_PATH", path)
	t.Cleanup(func() { resultsClaimID = "" })

	results := store.New(path, nil)
	_, err := results.Append("u-1", model.ClaimRecord{Name: "Ana Diaz", ClaimType: "health"})
	require.NoError(t, err)
	_, err = results.Append("u-1", model.ClaimRecord{Name: "Ana Diaz", ClaimType: "auto"})
	require.NoError(t, err)

	stdout, _, err := execute(t, "results", "u-1", "CLM002")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"claimType": "auto"`)

	stdout, _, err = execute(t, "results", "--claim", "CLM001")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"claimType": "health"`)
	resultsClaimID = ""

	_, _, err = execute(t, "results", "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short   text", 20))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
