package profile

import (
	"os"
	"path/filepath"

	"github.com/girste/shieldctl/internal/errors"
	"gopkg.in/yaml.v3"
)

const systemConfigDir = "/etc/shieldctl"

// LoadConfig loads profiles.yaml from dir. When dir is empty the
// system-wide config is tried and compiled-in defaults are used if no
// file exists. An explicit dir with a missing or invalid file is an
// error.
func LoadConfig(dir string) (*Config, error) {
	if dir != "" {
		return readConfig(filepath.Join(dir, "profiles.yaml"))
	}

	path := filepath.Join(systemConfigDir, "profiles.yaml")
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return readConfig(path)
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading profiles config")
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	if len(cfg.Profiles) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "%s defines no profiles", path)
	}
	if cfg.ServiceMappings == nil {
		cfg.ServiceMappings = map[string]string{}
	}
	return cfg, nil
}

// LoadExclusions loads exclusions.yaml from dir, with the same search
// behavior as LoadConfig.
func LoadExclusions(dir string) (*Exclusions, error) {
	if dir != "" {
		return readExclusions(filepath.Join(dir, "exclusions.yaml"))
	}

	path := filepath.Join(systemConfigDir, "exclusions.yaml")
	if _, err := os.Stat(path); err != nil {
		return DefaultExclusions(), nil
	}
	return readExclusions(path)
}

func readExclusions(path string) (*Exclusions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading exclusions config")
	}
	excl := &Exclusions{}
	if err := yaml.Unmarshal(data, excl); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	return excl, nil
}

// DefaultConfig returns the compiled-in profile table used when no
// profiles.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Profiles: map[string]Profile{
			"system_service": {
				Description: "Baseline hardening for ordinary system services",
				Overrides: Overrides{
					NoNewPrivileges:       "yes",
					PrivateTmp:            "yes",
					ProtectKernelModules:  "yes",
					ProtectKernelTunables: "yes",
					ProtectControlGroups:  "yes",
					RestrictRealtime:      "yes",
					LockPersonality:       "yes",
					ProtectHome:           "read-only",
					ProtectSystem:         "full",
					RestrictSUIDSGID:      "yes",
				},
			},
			"network_service": {
				Description: "Hardening for network-facing services that need socket access",
				Overrides: Overrides{
					NoNewPrivileges:       "yes",
					PrivateTmp:            "yes",
					ProtectKernelModules:  "yes",
					ProtectKernelTunables: "yes",
					ProtectControlGroups:  "yes",
					RestrictRealtime:      "yes",
					LockPersonality:       "yes",
					ProtectHome:           "yes",
					ProtectSystem:         "full",
					RestrictSUIDSGID:      "yes",
				},
			},
			"virtualization_service": {
				Description: "Relaxed hardening for container and VM managers that drive kernel facilities",
				Overrides: Overrides{
					NoNewPrivileges:  "yes",
					PrivateTmp:       "yes",
					RestrictRealtime: "yes",
					LockPersonality:  "yes",
					ProtectHome:      "read-only",
				},
			},
			"critical_service": {
				Description: "Conservative hardening for login and session infrastructure",
				Overrides: Overrides{
					NoNewPrivileges:      "yes",
					PrivateTmp:           "yes",
					ProtectKernelModules: "yes",
					RestrictRealtime:     "yes",
				},
			},
		},
		ServiceMappings: map[string]string{
			"docker.service":         "virtualization_service",
			"containerd.service":     "virtualization_service",
			"libvirtd.service":       "virtualization_service",
			"NetworkManager.service": "network_service",
			"nginx.service":          "network_service",
			"apache2.service":        "network_service",
		},
	}
}

// DefaultExclusions returns the compiled-in exclusion list used when no
// exclusions.yaml exists.
func DefaultExclusions() *Exclusions {
	return &Exclusions{
		ExcludedServices: []string{
			"sshd.service",
			"ssh.service",
			"systemd-*",
			"dbus.service",
			"dbus-broker.service",
		},
		ExclusionReasons: map[string]string{
			"sshd.service": "remote access lifeline; a failed restart locks you out",
			"ssh.service":  "remote access lifeline; a failed restart locks you out",
			"systemd-*":    "core init machinery, not safe to restart automatically",
			"dbus.service": "message bus underpins the whole session",
		},
	}
}
