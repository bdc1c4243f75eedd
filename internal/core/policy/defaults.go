package policy

// DefaultMaxEditSizeKB is the fallback file-edit size ceiling.
const DefaultMaxEditSizeKB = 64

// DefaultCommandPatterns covers common read-only diagnostic commands
// plus the service-management and package tooling an operator reaches
// for first when triaging a box.
func DefaultCommandPatterns() []string {
	return []string{
		`^(sudo\s+)?systemctl\s+`,
		`^(sudo\s+)?service\s+`,
		`^(sudo\s+)?journalctl(\s|$)`,
		`^tail\s+-f\s+`,
		`^tail\s+-n\s+\d+\s+`,
		`^head\s+-n\s+\d+\s+`,
		`^cat\s+`,
		`^less\s+`,
		`^grep\s+`,
		`^rg\s+`,
		`^(sudo\s+)?apt(-get)?\s+`,
		`^(sudo\s+)?dpkg\s+`,
		`^ls(\s|$)`,
		`^pwd$`,
		`^whoami$`,
		`^id$`,
		`^df\s+`,
		`^du\s+`,
		`^mount(\s|$)`,
		`^umount(\s|$)`,
		`^ip\s+`,
		`^ifconfig`,
		`^netstat`,
		`^ss\s+`,
		`^(sudo\s+)?ufw\s+`,
		`^(sudo\s+)?iptables\s+`,
		`^curl\s+`,
		`^wget\s+`,
		`^dig\s+`,
		`^host\s+`,
		`^ping\s+`,
		`^traceroute\s+`,
		`^top$`,
		`^htop$`,
		`^ps\s+`,
		`^(sudo\s+)?kill`,
		`^(sudo\s+)?systemd-analyze`,
	}
}

// DefaultFilePatterns covers the system-config and log paths a triage
// session commonly touches.
func DefaultFilePatterns() []string {
	return []string{
		"/etc/**",
		"/var/log/**",
		"/usr/lib/systemd/system/**",
		"/lib/systemd/system/**",
	}
}
