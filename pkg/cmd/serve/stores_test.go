package serve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
)

func TestParseStores(t *testing.T) {
	tests := []struct {
		value   string
		want    []string
		wantErr bool
	}{
		{value: "none", want: []string{}},
		{value: "", want: []string{}},
		{value: "postgres", want: []string{"postgres"}},
		{value: "Postgres, nats,bolt,nats", want: []string{"postgres", "nats", "bolt"}},
		{value: "none,bolt", wantErr: true},
		{value: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseStores(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceAddrs(t *testing.T) {
	oldDB, oldNats := config.DB, config.NatsURL
	defer func() { config.DB, config.NatsURL = oldDB, oldNats }()
	config.DB = "postgresql://u:p@db:5432/fts"
	config.NatsURL = "nats://bus:4222"

	assert.Equal(t, []string{"db:5432", "bus:4222"},
		serviceAddrs([]string{"postgres", "bolt", "nats"}))
}

func TestOpenBolt(t *testing.T) {
	old := config.BoltFile
	defer func() { config.BoltFile = old }()
	config.BoltFile = t.TempDir() + "/fts.db"

	be, err := openBackends(t.Context(), []string{"bolt"}, nil)
	require.NoError(t, err)
	assert.Len(t, be.store, 1)
	assert.Nil(t, be.bus)
	assert.NotNil(t, be.reader)
	be.close()
}
