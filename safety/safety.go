// Package safety implements the command-validation heuristics the agent
// loop consults before executing and recording an action. The checks are
// simple pattern matches; they gate obviously destructive operations, not
// adversarial input.
package safety

import (
	"log"
	"regexp"
	"strings"
)

// Checker validates commands and file operations. The engine and the shell
// tool consume this interface; a nil checker disables validation.
type Checker interface {
	// CheckCommand reports whether command is safe to execute, with a
	// human-readable reason when it is not.
	CheckCommand(command string) (ok bool, reason string)

	// CheckFileOperation validates an operation ("read", "write",
	// "delete") against a path.
	CheckFileOperation(operation, path string) (ok bool, reason string)

	// RequiresConfirmation reports whether command should be confirmed
	// by the user before execution.
	RequiresConfirmation(command string) bool
}

// PatternChecker is the default Checker: blocklist substrings, suspicious
// regexes and protected paths.
type PatternChecker struct {
	dangerous  []string
	suspicious []*regexp.Regexp
	protected  []string
	confirm    []string
}

var defaultDangerous = []string{
	"rm -rf /",
	"dd if=/dev/zero",
	"mkfs.",
	":(){ :|:& };:",
	"chmod -R 777 /",
	"wget * | sh",
	"curl * | bash",
}

var defaultSuspicious = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sudo\s+rm`),
	regexp.MustCompile(`(?i)format\s+[A-Z]:`),
	regexp.MustCompile(`(?i)del\s+/[FSQ]`),
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\breboot\b`),
}

var defaultProtected = []string{
	"/etc/passwd",
	"/etc/shadow",
	"/boot",
	`c:\windows\system32`,
}

var confirmationKeywords = []string{
	"delete", "remove", "rm",
	"format", "wipe",
	"shutdown", "reboot",
}

// NewChecker builds a PatternChecker with the built-in patterns plus any
// extra dangerous substrings from configuration.
func NewChecker(extraDangerous []string) *PatternChecker {
	dangerous := make([]string, 0, len(defaultDangerous)+len(extraDangerous))
	dangerous = append(dangerous, defaultDangerous...)
	for _, d := range extraDangerous {
		if d = strings.TrimSpace(d); d != "" {
			dangerous = append(dangerous, d)
		}
	}
	return &PatternChecker{
		dangerous:  dangerous,
		suspicious: defaultSuspicious,
		protected:  defaultProtected,
		confirm:    confirmationKeywords,
	}
}

// CheckCommand rejects commands containing a blocklisted substring or
// matching a suspicious pattern.
func (c *PatternChecker) CheckCommand(command string) (bool, string) {
	lower := strings.ToLower(command)

	for _, d := range c.dangerous {
		if strings.Contains(lower, strings.ToLower(d)) {
			log.Printf("[SAFETY] Blocked dangerous command: %.50s", command)
			return false, "blocked dangerous command: " + d
		}
	}
	for _, re := range c.suspicious {
		if re.MatchString(command) {
			log.Printf("[SAFETY] Suspicious pattern %q in command: %.50s", re.String(), command)
			return false, "suspicious pattern detected: " + re.String()
		}
	}
	return true, ""
}

// CheckFileOperation rejects access to protected system paths, path
// traversal, and deletion of filesystem roots.
func (c *PatternChecker) CheckFileOperation(operation, path string) (bool, string) {
	lower := strings.ToLower(path)

	for _, p := range c.protected {
		if strings.Contains(lower, p) {
			return false, "access to protected path denied: " + p
		}
	}
	if strings.Contains(path, "..") {
		return false, "path traversal not allowed"
	}
	if operation == "delete" && (path == "/" || lower == `c:\`) {
		return false, "cannot delete root directory"
	}
	return true, ""
}

// RequiresConfirmation reports whether the command contains a keyword the
// deployment wants confirmed before execution.
func (c *PatternChecker) RequiresConfirmation(command string) bool {
	lower := strings.ToLower(command)
	for _, kw := range c.confirm {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
