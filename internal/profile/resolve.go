package profile

import "strings"

// DefaultProfile is applied when no mapping or heuristic matches.
const DefaultProfile = "system_service"

// heuristics maps service-name substrings to profiles. The table is
// order-sensitive: first match wins.
var heuristics = []struct {
	substrings []string
	profile    string
}{
	{[]string{"network", "wpa", "dhcp"}, "network_service"},
	{[]string{"docker", "libvirt", "virtual"}, "virtualization_service"},
	{[]string{"dbus", "gdm", "login"}, "critical_service"},
}

// Resolve returns the recommended profile for a service: the explicit
// service mapping when present, otherwise the first matching name
// heuristic, otherwise the default.
func (c *Config) Resolve(service string) string {
	if name, ok := c.ServiceMappings[service]; ok {
		return name
	}

	for _, h := range heuristics {
		for _, sub := range h.substrings {
			if strings.Contains(service, sub) {
				return h.profile
			}
		}
	}

	return DefaultProfile
}
