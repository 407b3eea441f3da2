package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/valo/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)

	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url")

	assert.ErrorContains(t, err, "failed to parse redis URL")
}

func TestMetricsHook_CountsCommands(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	client := setupTestClient(t, NewMetricsHook(m))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	_ = client.Get(ctx, "missing").Err()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues("set", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "success")), "redis.Nil is not an error")
}
