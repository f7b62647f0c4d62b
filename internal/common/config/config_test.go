// internal/common/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrix-core/internal/matching"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matrix
    user: matrix
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
workers:
  rank-partners:
    enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "matrix-core", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "partner-matching", cfg.Camunda.MatchingProcessID)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "partners", cfg.Database.Elasticsearch.PartnerIndex)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)

	assert.Equal(t, matching.DefaultThreshold, cfg.Matching.Threshold)
	assert.Equal(t, 10, cfg.Matching.DefaultLimit)
	assert.Equal(t, 3, cfg.Matching.TopRecommended)
	assert.Equal(t, matching.DefaultWeights(), cfg.Matching.Weights)
	assert.Equal(t, 24*time.Hour, cfg.Matching.AnalysisTTL())

	assert.Equal(t, "https://api-fns.ru/api", cfg.TaxID.BaseURL)
	assert.Equal(t, 100, cfg.TaxID.DailyLimit)
	assert.Equal(t, 300, cfg.Cache.PartnerTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Workers(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.False(t, IsWorkerEnabled(cfg, "rank-partners"))
	assert.True(t, IsWorkerEnabled(cfg, "crisis-board"))

	wc := GetWorkerConfig(cfg, "rank-partners")
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, 3, wc.MaxRetries)

	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("FNS_API_KEY", "secret-key")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.TaxID.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing broker",
			yaml:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "bad weights",
			yaml:    minimalYAML + "matching:\n  weights:\n    specialization: 0.9\n    region: 0.9\n",
			wantErr: "matching.weights",
		},
		{
			name:    "threshold out of range",
			yaml:    minimalYAML + "matching:\n  threshold: 1.5\n",
			wantErr: "matching.threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "matrix", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=matrix sslmode=disable", p.GetDSN())
}
