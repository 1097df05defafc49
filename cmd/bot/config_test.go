package main

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	t.Setenv(EnvTelegramToken, "token")
	t.Setenv(EnvStoreBackend, "mongo")
	t.Setenv(EnvMongoUri, "mongodb://localhost:27017")
	t.Setenv(EnvAdminHandle, "@one, two")
	t.Setenv(EnvSessionTTL, "10m")
	t.Setenv(EnvKafkaBrokers, "k1:9092,k2:9092")
	t.Setenv(EnvKafkaTopic, "tickets")
	for _, key := range []string{EnvNeo4jUri, EnvNeo4jUsername, EnvNeo4jPassword, EnvNeo4jDatabase, EnvMongoDatabase, EnvMonitoringPort} {
		t.Setenv(key, "")
	}

	c, err := parseConfig(l)
	require.NoError(t, err)
	require.Equal(t, &Config{
		TelegramToken:  "token",
		Backend:        dataaccess.BackendMongo,
		Neo4jUri:       defaultNeo4jUri,
		Neo4jUsername:  defaultNeo4jUsername,
		MongoUri:       "mongodb://localhost:27017",
		MongoDatabase:  "triage",
		AdminHandles:   []string{"one", "two"},
		SessionTTL:     10 * time.Minute,
		MonitoringPort: "8080",
		KafkaBrokers:   []string{"k1:9092", "k2:9092"},
		KafkaTopic:     "tickets",
	}, c)
	require.NoError(t, c.Validate(true))
}

func TestParseConfig_Invalid(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	t.Run("backend", func(t *testing.T) {
		t.Setenv(EnvStoreBackend, "sqlite")
		_, err := parseConfig(l)
		require.ErrorContains(t, err, EnvStoreBackend)
	})

	t.Run("session ttl", func(t *testing.T) {
		t.Setenv(EnvStoreBackend, "memory")
		t.Setenv(EnvSessionTTL, "soon")
		_, err := parseConfig(l)
		require.ErrorContains(t, err, EnvSessionTTL)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		needBot bool
		wantErr string
	}{
		{
			name:    "memory without token for migrate",
			config:  Config{Backend: dataaccess.BackendMemory, AdminHandles: []string{"a"}},
			needBot: false,
		},
		{
			name:    "missing token",
			config:  Config{Backend: dataaccess.BackendMemory, AdminHandles: []string{"a"}},
			needBot: true,
			wantErr: EnvTelegramToken,
		},
		{
			name:    "mongo without uri",
			config:  Config{Backend: dataaccess.BackendMongo, AdminHandles: []string{"a"}},
			wantErr: EnvMongoUri,
		},
		{
			name:    "neo4j without uri",
			config:  Config{Backend: dataaccess.BackendNeo4j, AdminHandles: []string{"a"}},
			wantErr: EnvNeo4jUri,
		},
		{
			name:    "no admin",
			config:  Config{Backend: dataaccess.BackendMemory},
			wantErr: EnvAdminHandle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.needBot)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
