package tui

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3e8fb0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92"))
	noticeStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#f6c177"))

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#cecacd", Dark: "#44415a"}).
			Padding(0, 1)

	choiceStyle         = lipgloss.NewStyle()
	selectedChoiceStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})

	footerStyle = lipgloss.NewStyle().Faint(true)
)

// footerArt is the decorative band at the bottom of the page. It is pushed
// out of view while the dropdown needs the room.
var footerArt = []string{
	`      _____       ____        ___         `,
	`  ___|_|_|_|___ |_|__|  ____|_|_|___  _  `,
	`_|_o_o_o_o_o_o_|_o_o_|_|_o_o_o_o_o_o_|_|_`,
}
