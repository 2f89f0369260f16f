package supervisor

import "github.com/charmbracelet/lipgloss"

var (
	bannerColor  = lipgloss.Color("#7C3AED") // Purple
	restartColor = lipgloss.Color("#F59E0B") // Amber
	okColor      = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
)

// styles holds the lipgloss styles for user-facing console messages.
type styles struct {
	banner  lipgloss.Style
	restart lipgloss.Style
	ok      lipgloss.Style
	failure lipgloss.Style
}

// newStyles builds the message styles. With noColor set all styles render
// plain text.
func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{banner: plain, restart: plain, ok: plain, failure: plain}
	}

	return styles{
		banner:  lipgloss.NewStyle().Bold(true).Foreground(bannerColor),
		restart: lipgloss.NewStyle().Bold(true).Foreground(restartColor),
		ok:      lipgloss.NewStyle().Foreground(okColor),
		failure: lipgloss.NewStyle().Bold(true).Foreground(errorColor),
	}
}
