package monitoring

import (
	"testing"
)

func TestCheckHealthAggregatesResults(t *testing.T) {
	hc := NewHealthChecker("siren", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })

	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", status.Status)
	}

	hc.AddCheck("partial", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	if got := hc.CheckHealth().Status; got != StatusDegraded {
		t.Fatalf("expected degraded, got %s", got)
	}

	hc.AddCheck("down", func() CheckResult { return CheckResult{Status: StatusUnhealthy} })
	if got := hc.CheckHealth().Status; got != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", got)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	check := ConfigurationHealthCheck(map[string]string{
		"NEYNAR_API_KEY": "key",
		"BOT_FID":        "",
	})
	result := check()
	if result.Status != StatusDegraded {
		t.Fatalf("expected degraded on missing config, got %s", result.Status)
	}

	check = ConfigurationHealthCheck(map[string]string{"NEYNAR_API_KEY": "key"})
	if got := check().Status; got != StatusHealthy {
		t.Fatalf("expected healthy, got %s", got)
	}
}

func TestRedisHealthCheckNilClient(t *testing.T) {
	check := RedisHealthCheck(nil)
	if got := check().Status; got != StatusUnhealthy {
		t.Fatalf("expected unhealthy for nil client, got %s", got)
	}
}

func TestMetricsCollectorRegistersCustomMetrics(t *testing.T) {
	mc := NewMetricsCollector("siren", "v1", "abc1234")
	counter := mc.NewCounter("webhook_events_total", "Webhook events by outcome", []string{"outcome"})
	counter.WithLabelValues("duplicate").Inc()

	// Separate collectors must not collide on registration.
	other := NewMetricsCollector("siren", "v1", "abc1234")
	other.NewCounter("webhook_events_total", "Webhook events by outcome", []string{"outcome"})
}
