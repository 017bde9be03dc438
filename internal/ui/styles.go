package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss styles shared by the duel views
var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selfStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	opponentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	energyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	winStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	loseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Action icons
const (
	bubbleIcon = "🫧"
	shieldIcon = "🛡️"
	attackIcon = "⚡"
)
