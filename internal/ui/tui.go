// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits.
func Run(p Player) error {
	prog := tea.NewProgram(NewModel(p), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
