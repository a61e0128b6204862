package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/marketbubbles/internal/bubble/view"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7C3AED") // Purple
	AccentColor  = lipgloss.Color("#F59E0B") // Amber

	GainColor = lipgloss.Color(view.ColorGain)
	LossColor = lipgloss.Color(view.ColorLoss)

	BackgroundColor = lipgloss.Color("#1F2937")
	BorderColor     = lipgloss.Color("#374151")

	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
	TextMutedColor     = lipgloss.Color("#6B7280")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Background(BackgroundColor).
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(AccentColor)
)

// Popup styles
var (
	PopupBorderColor = PrimaryColor
	PopupTitleColor  = TextColor
	PopupLabelColor  = TextSecondaryColor
	PopupHintColor   = TextMutedColor
)

// Help bar style
var HelpStyle = lipgloss.NewStyle().
	Padding(0, 1)

var (
	cellMu     sync.Mutex
	cellStyles = make(map[cellKey]lipgloss.Style)
)

type cellKey struct {
	color string
	bold  bool
}

// Cell returns the style for canvas text in the given hex color. Styles are
// cached since the canvas asks for the same few colors every frame.
func Cell(color string, bold bool) lipgloss.Style {
	k := cellKey{color: color, bold: bold}

	cellMu.Lock()
	defer cellMu.Unlock()
	if s, ok := cellStyles[k]; ok {
		return s
	}
	s := lipgloss.NewStyle().Bold(bold)
	if color != "" {
		s = s.Foreground(lipgloss.Color(color))
	}
	cellStyles[k] = s
	return s
}
