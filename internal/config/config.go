// Package config loads and persists the engine's YAML configuration file
// (http/tls/logging/retry/ipPool/proxy/observability/workspace sections).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document, matching spec.md §6's sections.
type Config struct {
	Http          HttpConfig          `yaml:"http" json:"http"`
	Tls           TlsConfig           `yaml:"tls" json:"tls"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Retry         RetryConfig         `yaml:"retry" json:"retry"`
	IpPool        IpPoolConfig        `yaml:"ipPool" json:"ipPool"`
	Proxy         ProxyConfig         `yaml:"proxy" json:"proxy"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Workspace     WorkspaceConfig     `yaml:"workspace" json:"workspace"`
}

// HttpConfig controls the adaptive transport's HTTP-layer behavior.
type HttpConfig struct {
	FakeSniEnabled              bool     `yaml:"fakeSniEnabled" json:"fakeSniEnabled"`
	FakeSniHosts                []string `yaml:"fakeSniHosts" json:"fakeSniHosts"`
	FakeSniRolloutPercent       int      `yaml:"fakeSniRolloutPercent" json:"fakeSniRolloutPercent"`
	FollowRedirects             bool     `yaml:"followRedirects" json:"followRedirects"`
	MaxRedirects                uint8    `yaml:"maxRedirects" json:"maxRedirects"`
	AutoDisableFakeThresholdPct int      `yaml:"autoDisableFakeThresholdPct" json:"autoDisableFakeThresholdPct"`
	AutoDisableFakeCooldownSec  uint32   `yaml:"autoDisableFakeCooldownSec" json:"autoDisableFakeCooldownSec"`
	LargeBodyWarnBytes          uint64   `yaml:"largeBodyWarnBytes" json:"largeBodyWarnBytes"`
}

// TlsConfig controls the TLS verifier (SAN whitelist, SPKI pins, fingerprinting).
type TlsConfig struct {
	SanWhitelist           []string `yaml:"sanWhitelist" json:"sanWhitelist"`
	RealHostVerifyEnabled  bool     `yaml:"realHostVerifyEnabled" json:"realHostVerifyEnabled"`
	MetricsEnabled         bool     `yaml:"metricsEnabled" json:"metricsEnabled"`
	CertFpLogEnabled       bool     `yaml:"certFpLogEnabled" json:"certFpLogEnabled"`
	CertFpMaxBytes         uint64   `yaml:"certFpMaxBytes" json:"certFpMaxBytes"`
	SpkiPins               []string `yaml:"spkiPins" json:"spkiPins"`
}

// LoggingConfig controls the engine's slog setup.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug|info|warn|error
	JSON  bool   `yaml:"json" json:"json"`
}

// RetryConfig is the global default retry plan; spec.md §3's RetryPlan.
type RetryConfig struct {
	Max    uint32  `yaml:"max" json:"max"`
	BaseMs uint32  `yaml:"baseMs" json:"baseMs"`
	Factor float64 `yaml:"factor" json:"factor"`
	Jitter bool    `yaml:"jitter" json:"jitter"`
}

// PreheatDomain names a (host, ports) pair the IP pool samples at startup.
type PreheatDomain struct {
	Host  string   `yaml:"host" json:"host"`
	Ports []uint16 `yaml:"ports" json:"ports"`
}

// UserStaticEntry is an operator-supplied IP candidate.
type UserStaticEntry struct {
	Host  string   `yaml:"host" json:"host"`
	IP    string   `yaml:"ip" json:"ip"`
	Ports []uint16 `yaml:"ports" json:"ports"`
}

// IpPoolConfig controls the IP Pool (spec.md §4.3).
type IpPoolConfig struct {
	Enabled               bool              `yaml:"enabled" json:"enabled"`
	PreheatDomains        []PreheatDomain   `yaml:"preheatDomains" json:"preheatDomains"`
	ScoreTtlSeconds        uint64            `yaml:"scoreTtlSeconds" json:"scoreTtlSeconds"`
	UserStatic            []UserStaticEntry `yaml:"userStatic" json:"userStatic"`
	Blacklist              []string          `yaml:"blacklist" json:"blacklist"`
	Whitelist              []string          `yaml:"whitelist" json:"whitelist"`
	MaxCacheEntries        int               `yaml:"maxCacheEntries" json:"maxCacheEntries"`
	MaxParallelProbes      int               `yaml:"maxParallelProbes" json:"maxParallelProbes"`
	ProbeTimeoutMs         uint32            `yaml:"probeTimeoutMs" json:"probeTimeoutMs"`
	SingleflightTimeoutMs  uint32            `yaml:"singleflightTimeoutMs" json:"singleflightTimeoutMs"`
	CircuitBreakerThreshold int              `yaml:"circuitBreakerThreshold" json:"circuitBreakerThreshold"`
	CircuitBreakerCooldownSec uint32         `yaml:"circuitBreakerCooldownSec" json:"circuitBreakerCooldownSec"`
	AutoDisableThresholdPct int              `yaml:"autoDisableThresholdPct" json:"autoDisableThresholdPct"`
	AutoDisableCooldownSec  uint32           `yaml:"autoDisableCooldownSec" json:"autoDisableCooldownSec"`
	HistoryPath             string           `yaml:"historyPath" json:"historyPath"`
}

// ProxyMode enumerates the proxy modes that disable the custom transport.
type ProxyMode string

const (
	ProxyNone   ProxyMode = "none"
	ProxyHttp   ProxyMode = "http"
	ProxySocks5 ProxyMode = "socks5"
	ProxySystem ProxyMode = "system"
)

// ProxyConfig is specified only as the decision that disables the custom
// transport when active (spec.md §1's "OUT OF SCOPE" note); the connector
// implementations themselves are an external collaborator.
type ProxyConfig struct {
	Mode ProxyMode `yaml:"mode" json:"mode"`
	URL  string    `yaml:"url" json:"url"`
}

// Active reports whether a proxy is configured (any non-None mode with a URL).
func (p ProxyConfig) Active() bool {
	return p.Mode != ProxyNone && p.Mode != "" && p.URL != ""
}

// ObservabilityConfig controls metrics exposition.
type ObservabilityConfig struct {
	PrometheusEnabled bool   `yaml:"prometheusEnabled" json:"prometheusEnabled"`
	PrometheusAddr    string `yaml:"prometheusAddr" json:"prometheusAddr"`
}

// WorkspaceConfig is an external-collaborator contract only (spec.md §1 OUT
// OF SCOPE); carried so config round-trips every section named in spec.md §6.
type WorkspaceConfig struct {
	BasePath string `yaml:"basePath" json:"basePath"`
}

// Load reads, env-expands and parses a YAML config file, then fills the
// zero-valued fields that applyDefaults covers; other zero fields stay zero.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Init writes an example config file. Refuses to overwrite an existing file
// unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	cfg := Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	return writeAtomic(configPath, data)
}
