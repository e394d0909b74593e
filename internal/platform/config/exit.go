package config

import (
	"fmt"
	"os"
	"strings"
)

// Exitf prints a final message to stderr and terminates the process with a
// non-zero status. Entry points use it instead of log.Fatalf so the message
// is not decorated with the log prefix.
func Exitf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
	os.Exit(1)
}
