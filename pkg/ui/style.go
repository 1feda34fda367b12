package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	UserLabel        lipgloss.Style
	AssistantLabel   lipgloss.Style
	Timestamp        lipgloss.Style

	Heading  lipgloss.Style
	Emphasis lipgloss.Style
	Bullet   lipgloss.Style

	Sidebar          lipgloss.Style
	SidebarTitle     lipgloss.Style
	SidebarItem      lipgloss.Style
	SelectedItem     lipgloss.Style
	ActiveItem       lipgloss.Style
	Header           lipgloss.Style
	FocusedInput     lipgloss.Style
	UnfocusedInput   lipgloss.Style
	Pending          lipgloss.Style
	Error            lipgloss.Style
	EmptyPlaceholder lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
	Focused    string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Selected:   "#059669", // green
		Focused:    "#FFFF99", // light yellow
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Selected:   "#34D399",
		Focused:    "#DDDD77",
	}

	unselected := lipgloss.AdaptiveColor{Light: lightModeColors.Unselected, Dark: darkModeColors.Unselected}
	selected := lipgloss.AdaptiveColor{Light: lightModeColors.Selected, Dark: darkModeColors.Selected}
	focused := lipgloss.AdaptiveColor{Light: lightModeColors.Focused, Dark: darkModeColors.Focused}

	return &Style{
		UserMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(unselected),
		AssistantMessage: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(selected),
		UserLabel:      lipgloss.NewStyle().Bold(true),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(selected),
		Timestamp:      lipgloss.NewStyle().Faint(true),

		Heading:  lipgloss.NewStyle().Bold(true).Underline(true),
		Emphasis: lipgloss.NewStyle().Bold(true),
		Bullet:   lipgloss.NewStyle().Foreground(selected),

		Sidebar: lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(unselected).
			PaddingRight(1),
		SidebarTitle:     lipgloss.NewStyle().Bold(true).MarginBottom(1),
		SidebarItem:      lipgloss.NewStyle(),
		SelectedItem:     lipgloss.NewStyle().Reverse(true),
		ActiveItem:       lipgloss.NewStyle().Foreground(selected),
		Header:           lipgloss.NewStyle().Bold(true).Foreground(selected),
		FocusedInput:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(focused),
		UnfocusedInput:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(unselected),
		Pending:          lipgloss.NewStyle().Faint(true),
		Error:            lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
		EmptyPlaceholder: lipgloss.NewStyle().Faint(true).Italic(true),
	}
}
