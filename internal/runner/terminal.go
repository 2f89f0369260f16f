package runner

import "io"

// Escape sequences restoring a sane terminal after a worker was killed
// while holding the alternate screen: leave alternate screen, show the
// cursor, reset colors and attributes.
const terminalReset = "\x1b[?1049l\x1b[?25h\x1b[0m"

// ResetTerminal writes terminal-restore escape sequences to w. Full-screen
// workers killed mid-run otherwise leave the terminal in alternate screen
// mode with the cursor hidden.
func ResetTerminal(w io.Writer) {
	_, _ = io.WriteString(w, terminalReset)
}
