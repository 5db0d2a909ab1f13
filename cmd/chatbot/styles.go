package main

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink = lipgloss.Color("#FFB3BA") // assistant label, errors
	coralPink  = lipgloss.Color("#FFCCCB") // user prompt
	mintGreen  = lipgloss.Color("#A8E6CF") // module replies
	mutedGray  = lipgloss.Color("#6B7280") // status lines
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	moduleStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)
)
