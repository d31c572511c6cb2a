package builtin

import (
	"fmt"
	"regexp"
	"strings"
)

// Destructive patterns rejected outright, whatever the allowlist says.
// Invalid expressions would be a programmer error, so compilation panics at
// init via regexp.MustCompile.
var defaultDenyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\s+(-[a-zA-Z]*\s+)*-[a-zA-Z]*[rf]`),
	regexp.MustCompile(`\brm\s+-[a-zA-Z]*[rf]`),
	regexp.MustCompile(`\bmkfs(\.\w+)?\b`),
	regexp.MustCompile(`\bdd\s+[^|;]*of=/dev/`),
	regexp.MustCompile(`>\s*/dev/(sd|nvme|hd)`),
	regexp.MustCompile(`\b(shutdown|reboot|halt|poweroff)\b`),
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bchmod\s+(-[a-zA-Z]+\s+)*777\s+/`),
	regexp.MustCompile(`:\(\)\s*\{`), // fork bomb
	regexp.MustCompile(`\b(curl|wget)\b[^|;]*\|\s*(ba|z|da)?sh\b`),
	regexp.MustCompile(`\bgit\s+push\s+[^|;]*--force`),
}

// Benign dev-tool prefixes. A command (or every segment of a chained
// command) must start with one of these.
var defaultAllowPrefixes = []string{
	"ls", "cat", "head", "tail", "wc", "stat", "file", "du", "df",
	"grep", "rg", "find", "fd", "which", "env", "printenv", "date", "pwd",
	"echo", "printf", "true", "false", "test",
	"sort", "uniq", "cut", "tr", "sed", "awk", "diff", "xargs", "tee", "jq",
	"mkdir", "touch", "cp", "mv", "ln", "basename", "dirname", "realpath",
	"go", "gofmt", "git", "make", "cargo", "rustc",
	"npm", "npx", "pnpm", "yarn", "node", "tsc",
	"python", "python3", "pip", "pip3", "pytest",
	"java", "javac", "mvn", "gradle",
	"curl", "wget", "tar", "gzip", "gunzip", "unzip", "sha256sum", "md5sum",
	"sleep",
}

var chainSplitter = regexp.MustCompile(`&&|\|\||;|\|`)

// CommandFilter gates shell commands behind a destructive-pattern denylist
// and a dev-tool allowlist.
type CommandFilter struct {
	deny  []*regexp.Regexp
	allow map[string]struct{}
}

// NewCommandFilter returns a filter with the default deny patterns and allow
// prefixes.
func NewCommandFilter() *CommandFilter {
	return NewCommandFilterWith(nil, nil)
}

// NewCommandFilterWith extends the defaults with additional deny patterns
// (pre-compiled by the caller) and allow prefixes.
func NewCommandFilterWith(extraDeny []*regexp.Regexp, extraAllow []string) *CommandFilter {
	allow := make(map[string]struct{}, len(defaultAllowPrefixes)+len(extraAllow))
	for _, prefix := range defaultAllowPrefixes {
		allow[prefix] = struct{}{}
	}
	for _, prefix := range extraAllow {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			allow[trimmed] = struct{}{}
		}
	}
	deny := make([]*regexp.Regexp, 0, len(defaultDenyPatterns)+len(extraDeny))
	deny = append(deny, defaultDenyPatterns...)
	deny = append(deny, extraDeny...)
	return &CommandFilter{deny: deny, allow: allow}
}

// Check validates a command line. Chained commands (&&, ||, ;, |) are split
// and every segment must independently pass the allowlist.
func (f *CommandFilter) Check(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return fmt.Errorf("command cannot be empty")
	}

	for _, pattern := range f.deny {
		if pattern.MatchString(trimmed) {
			return fmt.Errorf("Access denied: command matches blocked pattern %q", pattern.String())
		}
	}

	for _, segment := range chainSplitter.Split(trimmed, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if err := f.checkSegment(segment); err != nil {
			return err
		}
	}
	return nil
}

func (f *CommandFilter) checkSegment(segment string) error {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return nil
	}
	head := fields[0]
	// Skip leading VAR=value assignments.
	for len(fields) > 1 && strings.Contains(head, "=") && !strings.HasPrefix(head, "=") {
		fields = fields[1:]
		head = fields[0]
	}
	if _, ok := f.allow[head]; !ok {
		return fmt.Errorf("Access denied: command %q is not on the allowlist", head)
	}
	return nil
}
