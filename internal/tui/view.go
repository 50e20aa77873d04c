package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func (m Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s   %s",
		titleStyle.Render("Todos"),
		mutedStyle.Render(fmt.Sprintf("%d of %d completed", m.totalDone, m.total)))
	b.WriteString(header + "\n\n")

	b.WriteString(m.add.View() + "\n")
	b.WriteString(m.search.View() + "\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spin.View() + mutedStyle.Render(" loading...") + "\n")
	case len(m.items) == 0:
		if m.searchQuery != "" {
			b.WriteString(mutedStyle.Render("No todos found matching your search.") + "\n")
		} else {
			b.WriteString(mutedStyle.Render("No tasks yet. Add one above to get started!") + "\n")
		}
	default:
		for i, t := range m.items {
			box := mutedStyle.Render(boxUnchecked)
			title := t.Title
			if t.Done {
				box = successStyle.Render(boxChecked)
				title = doneStyle.Render(title)
			}
			prefix := "  "
			if i == m.cursor && m.focus == focusList {
				prefix = selectedStyle.Render("> ")
			}
			b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, box, title))
		}
		if m.loadingMore {
			b.WriteString(m.spin.View() + mutedStyle.Render(" loading more...") + "\n")
		}
	}

	if m.total > 0 {
		pct := float64(m.totalDone) / float64(m.total)
		b.WriteString("\n" + m.bar.ViewAs(pct) + "\n")
	}

	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("a add • / search • space toggle • d delete • j/k move • q quit"))
	return b.String()
}
