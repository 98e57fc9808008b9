package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/echoes/internal/story"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
)

func (a *App) View() string {
	switch a.state {
	case viewName:
		return a.renderName()
	case viewScene:
		return a.renderScene()
	default:
		return a.renderEnd()
	}
}

func (a *App) renderName() string {
	title := titleStyle.Render(fmt.Sprintf("Welcome to the extended version of '%s'!", a.session.Graph.Title()))
	return fmt.Sprintf("%s\n\nEnter your name (or leave as %s):\n%s\n\n%s",
		title, a.defaultName, a.name.View(), statusStyle.Render("[enter] Start  [ctrl+c] Quit"))
}

func (a *App) renderScene() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("=== %s ===", a.scene.Title)))
	b.WriteString("\n\n")
	b.WriteString(a.wrap(string(a.body[:a.revealed])))

	if a.revealed < len(a.body) {
		b.WriteString("\n" + statusStyle.Render("[any key] Skip"))
		return b.String()
	}
	if a.scene.Terminal() {
		b.WriteString("\n" + statusStyle.Render("[any key] Continue"))
		return b.String()
	}

	b.WriteString("\n")
	for i, c := range a.scene.Choices {
		line := fmt.Sprintf("[%d] %s", i+1, c.Text)
		if i == a.cursor {
			b.WriteString(cursorStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\nYour choice: " + a.input + "\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("[1-%d] Choose  [↑/↓] Move  [enter] Select  [q] Quit", len(a.scene.Choices))))
	return b.String()
}

func (a *App) renderEnd() string {
	var b strings.Builder
	if a.err != nil {
		if errors.Is(a.err, story.ErrSceneNotFound) {
			b.WriteString(errorStyle.Render("ERROR: Scene not found. Exiting game.") + "\n")
		} else {
			b.WriteString(errorStyle.Render("ERROR: "+a.err.Error()) + "\n")
		}
	}
	b.WriteString("\nGame session terminated. Goodbye.\n\n")

	st := a.session.State
	b.WriteString(titleStyle.Render("Session summary") + "\n")
	fmt.Fprintf(&b, "Player:    %s\n", st.Name)
	fmt.Fprintf(&b, "Ending:    %s\n", endingText(st.Ending()))
	fmt.Fprintf(&b, "Morality:  %+d\n", st.Morality)
	fmt.Fprintf(&b, "Choices:   %d\n", st.Turns)
	fmt.Fprintf(&b, "Scenes:    %d of %d\n", len(st.Visited()), a.session.Graph.Len())
	inv := "(empty)"
	if len(st.Inventory) > 0 {
		inv = strings.Join(st.Inventory, ", ")
	}
	fmt.Fprintf(&b, "Inventory: %s\n", inv)
	b.WriteString("\n" + statusStyle.Render("[any key] Exit"))
	return b.String()
}

func (a *App) wrap(s string) string {
	if a.width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(a.width).Render(s)
}

func endingText(e story.Ending) string {
	switch e {
	case story.EndingSever:
		return "The signal was severed"
	case story.EndingAmplify:
		return "The signal was amplified"
	default:
		return "None reached"
	}
}
