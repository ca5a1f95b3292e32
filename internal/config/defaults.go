package config

// Default returns the full default configuration, matching spec.md §6's
// documented defaults: HTTP follow=true, max=5, fake SNI on with a
// baidu.com + github whitelist; retry {6, 300ms, 1.5, jitter on}.
func Default() Config {
	return Config{
		Http: HttpConfig{
			FakeSniEnabled:              true,
			FakeSniHosts:                []string{"baidu.com", "github.com"},
			FakeSniRolloutPercent:       100,
			FollowRedirects:             true,
			MaxRedirects:                5,
			AutoDisableFakeThresholdPct: 50,
			AutoDisableFakeCooldownSec:  300,
			LargeBodyWarnBytes:          50 * 1024 * 1024,
		},
		Tls: TlsConfig{
			SanWhitelist:          []string{"*.github.com", "github.com", "*.baidu.com", "baidu.com"},
			RealHostVerifyEnabled: true,
			MetricsEnabled:        true,
			CertFpLogEnabled:      false,
			CertFpMaxBytes:        16 * 1024,
			SpkiPins:              nil,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Retry:   RetryConfig{Max: 6, BaseMs: 300, Factor: 1.5, Jitter: true},
		IpPool: IpPoolConfig{
			Enabled:                   true,
			PreheatDomains:            []PreheatDomain{{Host: "github.com", Ports: []uint16{443}}},
			ScoreTtlSeconds:           300,
			MaxCacheEntries:           256,
			MaxParallelProbes:         8,
			ProbeTimeoutMs:            1500,
			SingleflightTimeoutMs:     4000,
			CircuitBreakerThreshold:   3,
			CircuitBreakerCooldownSec: 60,
			AutoDisableThresholdPct:   80,
			AutoDisableCooldownSec:    300,
			HistoryPath:               "ip-history.json",
		},
		Proxy:         ProxyConfig{Mode: ProxyNone},
		Observability: ObservabilityConfig{PrometheusEnabled: false, PrometheusAddr: ":9090"},
		Workspace:     WorkspaceConfig{BasePath: "."},
	}
}

// applyDefaults fills zero-valued fields of cfg from Default(). Slices and
// structs with an explicit non-zero scalar are left untouched; this mirrors
// the teacher's config.go "apply defaults only when unset" discipline.
func applyDefaults(cfg *Config) {
	d := Default()

	if cfg.Http.FakeSniRolloutPercent == 0 && len(cfg.Http.FakeSniHosts) == 0 {
		cfg.Http = d.Http
	}
	if cfg.Http.MaxRedirects == 0 {
		cfg.Http.MaxRedirects = d.Http.MaxRedirects
	}
	if len(cfg.Tls.SanWhitelist) == 0 {
		cfg.Tls.SanWhitelist = d.Tls.SanWhitelist
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Retry.Max == 0 && cfg.Retry.BaseMs == 0 {
		cfg.Retry = d.Retry
	}
	if cfg.IpPool.MaxCacheEntries == 0 {
		cfg.IpPool.MaxCacheEntries = d.IpPool.MaxCacheEntries
	}
	if cfg.IpPool.ProbeTimeoutMs == 0 {
		cfg.IpPool.ProbeTimeoutMs = d.IpPool.ProbeTimeoutMs
	}
	if cfg.IpPool.SingleflightTimeoutMs == 0 {
		cfg.IpPool.SingleflightTimeoutMs = d.IpPool.SingleflightTimeoutMs
	}
	if cfg.IpPool.CircuitBreakerThreshold == 0 {
		cfg.IpPool.CircuitBreakerThreshold = d.IpPool.CircuitBreakerThreshold
	}
	if cfg.IpPool.CircuitBreakerCooldownSec == 0 {
		cfg.IpPool.CircuitBreakerCooldownSec = d.IpPool.CircuitBreakerCooldownSec
	}
	if cfg.IpPool.HistoryPath == "" {
		cfg.IpPool.HistoryPath = d.IpPool.HistoryPath
	}
	if cfg.Proxy.Mode == "" {
		cfg.Proxy.Mode = ProxyNone
	}
	if cfg.Workspace.BasePath == "" {
		cfg.Workspace.BasePath = d.Workspace.BasePath
	}
}
