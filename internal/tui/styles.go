package tui

import styles "github.com/charmbracelet/lipgloss"

var (
	accentColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	warnColor   = styles.AdaptiveColor{Light: "3", Dark: "11"}
	errorColor  = styles.AdaptiveColor{Light: "1", Dark: "9"}

	accentFg  = styles.NewStyle().Foreground(accentColor)
	borderFg  = styles.NewStyle().Foreground(borderColor)
	warnFg    = styles.NewStyle().Foreground(warnColor)
	errorFg   = styles.NewStyle().Foreground(errorColor)
	markStyle = styles.NewStyle().Foreground(accentColor).Bold(true)

	plotStyle = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			BorderForeground(borderColor)
)
