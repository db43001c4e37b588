package collector

import "regexp"

// reSafeArgument is the allowlist grammar §6 assigns to every command
// argument; empty strings are always rejected.
var reSafeArgument = regexp.MustCompile(`^[A-Za-z0-9._-]{1,255}$`)

// sentinelNoop is substituted for any argument that fails the safe-argument
// grammar. It is never itself a valid command name or argument, so a
// command built from it executes nothing.
const sentinelNoop = "__xcprobe_rejected_argument__"

// Allowlist is the set of command names a Transport is permitted to
// execute, as loaded from the collector's allowlist file.
type Allowlist struct {
	commands map[string]bool
}

// NewAllowlist builds an Allowlist from a list of command names.
func NewAllowlist(commands []string) *Allowlist {
	a := &Allowlist{commands: make(map[string]bool, len(commands))}
	for _, c := range commands {
		a.commands[c] = true
	}
	return a
}

// Allows reports whether command is present in the allowlist.
func (a *Allowlist) Allows(command string) bool {
	return a.commands[command]
}

// SanitizeArgs validates every argument against the safe-argument grammar,
// substituting sentinelNoop for anything that fails. The caller should
// treat a result containing the sentinel as a refused command rather than
// attempt to run it.
func SanitizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if reSafeArgument.MatchString(a) {
			out[i] = a
		} else {
			out[i] = sentinelNoop
		}
	}
	return out
}

// ContainsSentinel reports whether any argument in args was rejected by
// SanitizeArgs.
func ContainsSentinel(args []string) bool {
	for _, a := range args {
		if a == sentinelNoop {
			return true
		}
	}
	return false
}
