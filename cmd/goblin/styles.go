package main

import "github.com/charmbracelet/lipgloss"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// success renders a confirmation line with the check mark prefix.
func success(msg string) string {
	return successStyle.Render("✓ " + msg)
}
