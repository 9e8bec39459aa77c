package metrics

import "strings"

// Prefix namespaces every instrument the module registers.
const Prefix = "cloudmanager_"

// MetricName prefixes name unless it already carries the namespace.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem builds "<prefix><subsystem>_<name>".
func MetricNameWithSubsystem(subsystem, name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	subsystem = strings.Trim(subsystem, "_")
	switch {
	case subsystem == "":
		return MetricName(name)
	case name == "":
		return Prefix + subsystem
	default:
		return Prefix + subsystem + "_" + name
	}
}
