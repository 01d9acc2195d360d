package infrastructure

import "strings"

// shellSpecial lists the characters that force quoting when a command line
// is rendered for logs. exec.Command itself never goes through a shell.
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscapeCommand renders a binary and its arguments as a
// copy-pasteable shell command line for logging.
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(binary))
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s when it contains shell-special characters.
// An embedded single quote closes the quote, emits the character
// double-quoted, and reopens.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
