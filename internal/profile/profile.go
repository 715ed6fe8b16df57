// Package profile holds the hardening profiles, the directive overrides
// they carry, and the exclusion list. Everything here is pure data,
// loaded once and read-only afterwards.
package profile

import "strings"

// Overrides is the fixed set of systemd hardening directives a profile
// can set. An empty value means the directive is unset and is omitted
// entirely from rendered output.
type Overrides struct {
	NoNewPrivileges        string `yaml:"NoNewPrivileges,omitempty"`
	IPAddressDeny          string `yaml:"IPAddressDeny,omitempty"`
	IPAddressAllow         string `yaml:"IPAddressAllow,omitempty"`
	PrivateTmp             string `yaml:"PrivateTmp,omitempty"`
	ProtectKernelModules   string `yaml:"ProtectKernelModules,omitempty"`
	ProtectKernelTunables  string `yaml:"ProtectKernelTunables,omitempty"`
	ProtectControlGroups   string `yaml:"ProtectControlGroups,omitempty"`
	RestrictRealtime       string `yaml:"RestrictRealtime,omitempty"`
	LockPersonality        string `yaml:"LockPersonality,omitempty"`
	ProtectHome            string `yaml:"ProtectHome,omitempty"`
	ProtectSystem          string `yaml:"ProtectSystem,omitempty"`
	MemoryDenyWriteExecute string `yaml:"MemoryDenyWriteExecute,omitempty"`
	RestrictSUIDSGID       string `yaml:"RestrictSUIDSGID,omitempty"`
}

// Directive is a single named hardening setting.
type Directive struct {
	Name  string
	Value string
}

// pairs lists every directive in its canonical order, set or not.
func (o Overrides) pairs() []Directive {
	return []Directive{
		{"NoNewPrivileges", o.NoNewPrivileges},
		{"IPAddressDeny", o.IPAddressDeny},
		{"IPAddressAllow", o.IPAddressAllow},
		{"PrivateTmp", o.PrivateTmp},
		{"ProtectKernelModules", o.ProtectKernelModules},
		{"ProtectKernelTunables", o.ProtectKernelTunables},
		{"ProtectControlGroups", o.ProtectControlGroups},
		{"RestrictRealtime", o.RestrictRealtime},
		{"LockPersonality", o.LockPersonality},
		{"ProtectHome", o.ProtectHome},
		{"ProtectSystem", o.ProtectSystem},
		{"MemoryDenyWriteExecute", o.MemoryDenyWriteExecute},
		{"RestrictSUIDSGID", o.RestrictSUIDSGID},
	}
}

// Set returns the directives that carry a value, in canonical order.
func (o Overrides) Set() []Directive {
	var set []Directive
	for _, d := range o.pairs() {
		if d.Value != "" {
			set = append(set, d)
		}
	}
	return set
}

// Render produces the drop-in unit fragment: a [Service] section with
// one Directive=Value line per set directive.
func (o Overrides) Render() string {
	lines := []string{"[Service]"}
	for _, d := range o.Set() {
		lines = append(lines, d.Name+"="+d.Value)
	}
	return strings.Join(lines, "\n")
}

// Explanations returns the educational explanation for every set
// directive.
func (o Overrides) Explanations() map[string]string {
	out := map[string]string{}
	for _, d := range o.Set() {
		if expl, ok := directiveExplanations[d.Name]; ok {
			out[d.Name] = expl
		} else {
			out[d.Name] = "No description available."
		}
	}
	return out
}

// Profile is a named, reusable bundle of directives. Immutable once
// loaded.
type Profile struct {
	Description string    `yaml:"description"`
	Overrides   Overrides `yaml:"overrides"`
}

// Config maps profile names to profiles, plus explicit service name to
// profile name overrides. Loaded once at engine construction.
type Config struct {
	Profiles        map[string]Profile `yaml:"profiles"`
	ServiceMappings map[string]string  `yaml:"service_mappings"`
}

// Lookup returns the profile with the given name.
func (c *Config) Lookup(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// directiveExplanations is the knowledge base shown to the user after a
// successful hardening run.
var directiveExplanations = map[string]string{
	"NoNewPrivileges":        "Prevents the service and its children from gaining new privileges (e.g. via setuid binaries). Fundamental for containing privilege escalation exploits.",
	"IPAddressDeny":          "Restricts network access. 'any' blocks all inbound/outbound traffic, shrinking the network attack surface.",
	"IPAddressAllow":         "Permits access only to specific addresses or ranges, following an allow-list principle.",
	"PrivateTmp":             "Gives the service a private /tmp invisible to the rest of the system, preventing shared temp-file attacks.",
	"ProtectKernelModules":   "Stops the service from loading or unloading kernel modules, protecting kernel integrity.",
	"ProtectKernelTunables":  "Makes kernel variables (/proc/sys, /sys) read-only, preventing changes to kernel configuration.",
	"ProtectControlGroups":   "Stops the service from modifying control groups, so it cannot alter system resource limits.",
	"RestrictRealtime":       "Denies realtime scheduling, which could otherwise be abused for denial-of-service.",
	"LockPersonality":        "Locks the execution personality (e.g. no 64-bit/32-bit switching), hindering exploits that depend on architecture changes.",
	"ProtectHome":            "Restricts access to /home, /root and /run/user, protecting user data.",
	"ProtectSystem":          "Makes critical directories like /usr, /boot and /etc read-only for the service.",
	"MemoryDenyWriteExecute": "Forbids memory that is writable and executable at the same time. Crucial against code injection.",
	"RestrictSUIDSGID":       "Prevents creation of SUID/SGID files, a common privilege escalation path.",
}
