package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestNotifyCompleted(t *testing.T) {
	received := make(chan payload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/webhooks/123/token", r.URL.Path)
		var p payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier, err := NewNotifier(server.URL+"/api/webhooks/123/token", domain.Specs{
		Model:    "AMD Ryzen 7 5800X 8-Core Processor",
		Cores:    8,
		Threads:  16,
		RAM:      domain.RAM{TotalBytes: 32 << 30},
		RAMSpeed: "3200 MT/s",
	}, server.Client())
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), domain.BenchmarkReport{
		ID:         "run-1",
		Algorithm:  "sha256",
		HashCount:  1000,
		State:      domain.RunStateCompleted,
		FinishedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Single:     &domain.BenchmarkResult{Workers: 1, Elapsed: time.Second, TotalOperations: 1000, Throughput: 1000},
		Multi:      &domain.BenchmarkResult{Workers: 16, Elapsed: 2 * time.Second, TotalOperations: 16000, Throughput: 8000},
	})
	require.NoError(t, err)

	p := <-received
	require.Len(t, p.Embeds, 1)
	msg := p.Embeds[0]
	require.Equal(t, "AMD Ryzen 7 5800X", msg.Title)
	require.Equal(t, colorGreen, msg.Color)
	require.Equal(t, "8000.00 H/s multi-threaded", msg.Description)
	require.Contains(t, msg.Footer.Text, "2026-10-01 12:00:00 UTC")

	names := make([]string, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"Cores/Threads", "RAM", "RAM Speed", "Single-threaded", "Multi-threaded"}, names)
}

func TestNotifyFailedReport(t *testing.T) {
	n := &Notifier{title: "cpu", username: "node"}
	p := n.payload(domain.BenchmarkReport{
		State: domain.RunStateFailed,
		Error: "worker 3 failed: boom",
	})
	require.Equal(t, colorRed, p.Embeds[0].Color)
	require.Equal(t, "benchmark failed: worker 3 failed: boom", p.Embeds[0].Description)
}

func TestNotifyRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	notifier, err := NewNotifier(server.URL+"/webhooks/1/t", domain.Specs{}, server.Client())
	require.NoError(t, err)
	err = notifier.Notify(context.Background(), domain.BenchmarkReport{State: domain.RunStateCancelled})
	require.ErrorContains(t, err, "429")
}

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/42/secret")
	require.NoError(t, err)
	require.Equal(t, "42", id)
	require.Equal(t, "secret", token)

	for _, raw := range []string{"", "https://discord.com/", "ftp://host/webhooks/1/2", "https://host/token"} {
		_, _, err := parseWebhookURL(raw)
		require.Error(t, err, raw)
	}
}

func TestStripCoreInfo(t *testing.T) {
	require.Equal(t, "AMD Ryzen 9 5950X", stripCoreInfo("AMD Ryzen 9 5950X 16-Core Processor"))
	require.Equal(t, "Intel(R) Core(TM) i7-9700K CPU @ 3.60GHz", stripCoreInfo("Intel(R) Core(TM) i7-9700K CPU @ 3.60GHz"))
}
