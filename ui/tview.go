package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TviewChooser presents candidates in a full-screen selectable list.
// Escape aborts the selection.
type TviewChooser struct {
	screen tcell.Screen // optional injected screen (for testing)
}

// NewTviewChooser creates a new tview-based chooser.
func NewTviewChooser() *TviewChooser {
	return &TviewChooser{}
}

// SetScreen injects a custom tcell.Screen for testing purposes.
// Must be called before Choose().
func (c *TviewChooser) SetScreen(screen tcell.Screen) {
	c.screen = screen
}

// Choose runs the list UI and returns the selected candidate index.
func (c *TviewChooser) Choose(prompt string, candidates []string) (int, error) {
	app := tview.NewApplication()
	if c.screen != nil {
		app.SetScreen(c.screen)
	}

	selected := -1
	list := tview.NewList().ShowSecondaryText(false)
	for _, cand := range candidates {
		list.AddItem(cand, "", 0, nil)
	}
	list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		selected = index
		app.Stop()
	})
	list.SetDoneFunc(func() {
		app.Stop()
	})
	list.SetBorder(true).SetTitle(" " + prompt + " ").SetTitleAlign(tview.AlignLeft)

	if err := app.SetRoot(list, true).Run(); err != nil {
		return 0, err
	}
	if selected < 0 {
		return 0, ErrChoiceAborted
	}
	return selected, nil
}
