package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/stage"
	"github.com/matzehuels/stagegraph/pkg/view"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listCursorStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// =============================================================================
// BrowseModel - Interactive node navigation
// =============================================================================

// BrowseModel is the bubbletea model behind the browse command. It lists
// the nodes of a [view.View] in layout order; Enter clicks the node under
// the cursor.
type BrowseModel struct {
	ctx    context.Context
	view   *view.View
	nodes  []layout.Node
	reload func() ([]stage.Stage, error)

	Cursor int
	Offset int
	Height int
	Status string
}

// NewBrowseModel creates a browse model over v. reload re-reads the stage
// list when the user presses r; it may be nil.
func NewBrowseModel(ctx context.Context, v *view.View, reload func() ([]stage.Stage, error)) BrowseModel {
	m := BrowseModel{
		ctx:    ctx,
		view:   v,
		reload: reload,
		Height: 15,
	}
	m.refresh("")
	return m
}

// refresh re-reads the node list and puts the cursor on key, or on the
// selected node if key is empty or gone.
func (m *BrowseModel) refresh(key string) {
	m.nodes = m.view.Model().Nodes
	if key == "" {
		key = m.view.Selection().Key
	}
	m.Cursor = 0
	for i, n := range m.nodes {
		if n.Key == key {
			m.Cursor = i
			break
		}
	}
	m.scroll()
}

func (m *BrowseModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Current returns the node under the cursor.
func (m BrowseModel) Current() (layout.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.nodes) {
		return layout.Node{}, false
	}
	return m.nodes[m.Cursor], true
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.scroll()
			}
		case "down", "j":
			if m.Cursor < len(m.nodes)-1 {
				m.Cursor++
				m.scroll()
			}
		case "enter", " ":
			m.click()
		case "esc", "c":
			m.view.ClearSelection(m.ctx)
			m.Status = "selection cleared"
		case "r":
			m.reloadStages()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
		m.scroll()
	}
	return m, nil
}

func (m *BrowseModel) click() {
	n, ok := m.Current()
	if !ok {
		return
	}
	c, reported, err := m.view.Click(m.ctx, n.Key)
	switch {
	case err != nil:
		m.Status = err.Error()
	case !reported:
		m.Status = fmt.Sprintf("%s is an add placeholder: no action", n.Key)
	default:
		m.Status = fmt.Sprintf("clicked %s (%d)", c.Name, c.ID)
	}
}

func (m *BrowseModel) reloadStages() {
	if m.reload == nil {
		return
	}
	stages, err := m.reload()
	if err != nil {
		m.Status = err.Error()
		return
	}
	key := ""
	if n, ok := m.Current(); ok {
		key = n.Key
	}
	if !m.view.SetStages(stages) {
		m.Status = "stages unchanged"
		return
	}
	m.refresh(key)
	m.Status = fmt.Sprintf("reloaded: %s", plural(len(m.nodes), "node"))
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pipeline"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ click  c clear  r reload  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	model := m.view.Model()
	sel := m.view.Selection()
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		n := m.nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.Key,
			string(n.Kind),
			nodeName(n),
			columnName(model, n),
			fmt.Sprintf("%g,%g", n.X, n.Y),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Key", "Kind", "Name", "Column", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.nodes) {
				return lipgloss.NewStyle()
			}
			n := m.nodes[idx]
			switch {
			case sel.IsNodeSelected(n):
				return StyleSelected
			case idx == m.Cursor:
				return listCursorStyle
			case n.IsPlaceholder():
				return listDimStyle
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	footer := fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.nodes))
	if !sel.None() {
		footer += "  selected " + sel.Key
	}
	b.WriteString(listDimStyle.Render(footer))
	if m.Status != "" {
		b.WriteString("\n  " + m.Status)
	}
	b.WriteString("\n")

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func nodeName(n layout.Node) string {
	if n.Kind == layout.KindAdd {
		return "+"
	}
	return n.Name
}

// columnName names the top-level stage whose column holds n.
func columnName(m *layout.Model, n layout.Node) string {
	if !n.HasParent {
		return "—"
	}
	for _, l := range m.BigLabels {
		if l.HasStage && l.StageID == n.ParentStageID {
			return l.Text
		}
	}
	return strconv.Itoa(n.ParentStageID)
}
