//go:build integration

package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/clover/core/metrics"
)

func startInflux(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "clover",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "cloverpass",
			"DOCKER_INFLUXDB_INIT_ORG":         "clover",
			"DOCKER_INFLUXDB_INIT_BUCKET":      "runs",
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": "clover-token",
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "8086")
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestInfluxSink_Integration(t *testing.T) {
	url := startInflux(t)
	cfg := InfluxConfig{URL: url, Token: "clover-token", Org: "clover", Bucket: "runs"}
	sink := NewInfluxSinkWithFallback(cfg)
	require.IsType(t, &InfluxSink{}, sink)

	rec := sink.(coremetrics.RunRecorder)
	require.NoError(t, rec.RecordRun(coremetrics.RunEvent{
		RunID: "it", Location: "Bahraich", Command: "clover", Success: true,
		Duration: 2 * time.Second, Time: time.Now(),
	}))

	client := influxdb2.NewClient(url, cfg.Token)
	defer client.Close()
	q := `from(bucket:"runs") |> range(start: -1h) |> filter(fn: (r) => r._measurement == "run" and r.run_id == "it")`
	require.Eventually(t, func() bool {
		res, err := client.QueryAPI(cfg.Org).Query(context.Background(), q)
		if err != nil {
			return false
		}
		defer res.Close()
		return res.Next()
	}, 10*time.Second, 200*time.Millisecond)
}
