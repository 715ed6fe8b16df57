package profile

import "strings"

// Exclusions lists services permanently opted out of automated
// hardening. Patterns are exact unit names or prefixes ending in '*'.
type Exclusions struct {
	ExcludedServices []string          `yaml:"excluded_services"`
	ExclusionReasons map[string]string `yaml:"exclusion_reasons,omitempty"`
}

// Matches reports whether a service name hits any exclusion pattern.
// A pattern ending in '*' matches any name sharing its prefix; a
// pattern without '*' matches only on exact equality.
func (e *Exclusions) Matches(service string) bool {
	_, ok := e.match(service)
	return ok
}

// Reason returns the human-readable exclusion reason for a service, if
// one was configured for the matching pattern.
func (e *Exclusions) Reason(service string) string {
	pattern, ok := e.match(service)
	if !ok {
		return ""
	}
	return e.ExclusionReasons[pattern]
}

func (e *Exclusions) match(service string) (string, bool) {
	for _, pattern := range e.ExcludedServices {
		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(service, strings.TrimSuffix(pattern, "*")) {
				return pattern, true
			}
			continue
		}
		if service == pattern {
			return pattern, true
		}
	}
	return "", false
}
