package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"host": "127.0.0.1", "user": "insure", "dbname": "insure"},
		"file_store": {"type": "local", "data": {"dir": "/var/lib/insuregenie"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "models/risk_model.json", cfg.Models.RiskModelKey)
	require.Equal(t, "models/chatbot_model/chatbot_responses.json", cfg.Models.IndexResponsesKey)
	require.Equal(t, "local", cfg.AI.Provider)
	require.Equal(t, 384, cfg.AI.Dimension)
	require.Equal(t, "", cfg.Schedule.RiskTrain)
}

func TestLoadRequiresDatabaseAndStore(t *testing.T) {
	_, err := Load(writeConfig(t, `{"file_store": {"data": {"dir": "/tmp"}}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"database": {"dsn": "postgres://x"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"database": {"dsn": "postgres://x"}, "file_store": {"data": {}}, "chat_rate_limit_ms": -1}`))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
