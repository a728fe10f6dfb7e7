package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func env(pat, org, project string) AzureDevOpsConfig {
	return AzureDevOpsConfig{PAT: pat, Organization: org, Project: project}
}

func TestResolve_FromEnvironment(t *testing.T) {
	target, err := Resolve(Overrides{}, env("p", "O", "P"))
	require.NoError(t, err)

	assert.Equal(t, "p", target.PAT())
	assert.Equal(t, "O", target.Organization())
	assert.Equal(t, "P", target.Project())
	assert.Equal(t, "https://dev.azure.com/O", target.OrganizationURL())
}

func TestResolve_OverrideWins(t *testing.T) {
	target, err := Resolve(Overrides{
		PAT:          strPtr("explicit"),
		Organization: strPtr("Contoso"),
	}, env("p", "O", "P"))
	require.NoError(t, err)

	assert.Equal(t, "explicit", target.PAT())
	assert.Equal(t, "Contoso", target.Organization())
	assert.Equal(t, "P", target.Project(), "проект берётся из окружения")
	assert.Equal(t, "https://dev.azure.com/Contoso", target.OrganizationURL())
}

func TestResolve_BlankOverrideFallsBackToEnvironment(t *testing.T) {
	target, err := Resolve(Overrides{Project: strPtr("   ")}, env("p", "O", "P"))
	require.NoError(t, err)
	assert.Equal(t, "P", target.Project())
}

func TestResolve_MissingInOrder(t *testing.T) {
	tests := []struct {
		name string
		env  AzureDevOpsConfig
		want string
	}{
		{"нет ничего", env("", "", ""), "AZURE_DEVOPS_PAT"},
		{"нет организации и проекта", env("p", "", ""), "AZURE_DEVOPS_ORG"},
		{"нет проекта", env("p", "O", ""), "AZURE_DEVOPS_PROJECT"},
		{"только пробелы", env("p", "  ", "P"), "AZURE_DEVOPS_ORG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(Overrides{}, tt.env)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve_InvalidOrganization(t *testing.T) {
	for _, org := range []string{"my org", "contoso/evil", "org?x=1", "имя"} {
		t.Run(org, func(t *testing.T) {
			_, err := Resolve(Overrides{}, env("p", org, "P"))
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
			assert.Contains(t, err.Error(), "invalid organization")
		})
	}
}

func TestResolve_BaseURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"", "https://dev.azure.com/O"},
		{"https://tfs.example.com/tfs/", "https://tfs.example.com/tfs/O"},
		{"http://127.0.0.1:8080?x=1", "http://127.0.0.1:8080/O"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			e := env("p", "O", "P")
			e.BaseURL = tt.base
			target, err := Resolve(Overrides{}, e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, target.OrganizationURL())
		})
	}

	e := env("p", "O", "P")
	e.BaseURL = "ftp://example.com"
	_, err := Resolve(Overrides{}, e)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
}

func TestTarget_StringHidesPAT(t *testing.T) {
	target, err := NewTarget("secret-pat", "O", "P", "")
	require.NoError(t, err)
	assert.NotContains(t, target.String(), "secret-pat")
	assert.False(t, target.IsZero())
	assert.True(t, Target{}.IsZero())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://dev.azure.com", cfg.AzureDevOps.BaseURL)
	assert.Equal(t, "7.0", cfg.AzureDevOps.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.AzureDevOps.Timeout)
	assert.Equal(t, 10, cfg.AzureDevOps.RateBurst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.True(t, cfg.Logging.Compress)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "azure-devops-server", cfg.Server.Name)
	assert.Empty(t, cfg.Source)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
azureDevOps:
  organization: FromFile
  project: FileProject
  timeout: 10s
logging:
  level: debug
`), 0o600))

	t.Setenv("AZURE_DEVOPS_ORG", "FromEnv")
	t.Setenv("AZURE_DEVOPS_PAT", "env-pat")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "FromEnv", cfg.AzureDevOps.Organization, "env перекрывает файл")
	assert.Equal(t, "FileProject", cfg.AzureDevOps.Project)
	assert.Equal(t, 10*time.Second, cfg.AzureDevOps.Timeout, "значение из файла не перекрывается env-default")
	assert.Equal(t, "debug", cfg.Logging.Level)

	target, err := cfg.Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "env-pat", target.PAT())
	assert.Equal(t, "https://dev.azure.com/FromEnv", target.OrganizationURL())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("azureDevOps: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConfigLoad, appErr.Code)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Run("metrics без url", func(t *testing.T) {
		t.Setenv("AZDO_METRICS_ENABLED", "true")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pushgateway_url")
	})

	t.Run("tracing с неверным sampling", func(t *testing.T) {
		t.Setenv("AZDO_TRACING_ENABLED", "true")
		t.Setenv("AZDO_TRACING_ENDPOINT", "http://jaeger:4318")
		t.Setenv("AZDO_TRACING_SAMPLING_RATE", "2")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling rate")
	})

	t.Run("отрицательный rate limit", func(t *testing.T) {
		t.Setenv("AZURE_DEVOPS_RATE_LIMIT", "-1")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit")
	})
}
