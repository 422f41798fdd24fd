package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// variantLister lists every variant of a character.
type variantLister interface {
	AllVariants(ch rune) []catalog.VariantID
}

// =============================================================================
// OverrideModel - Interactive glyph override
// =============================================================================

type overrideStage int

const (
	stageGlyphs overrideStage = iota
	stageVariants
)

// OverrideModel is the bubbletea model for choosing replacement variants.
// The user picks a glyph, then one of its character's variants; choices are
// collected in Changes and applied by the caller once Saved is set.
type OverrideModel struct {
	Glyphs  []pipeline.Glyph
	Changes map[int]catalog.VariantID
	Saved   bool

	lister   variantLister
	stage    overrideStage
	cursor   int
	offset   int
	height   int
	variants []catalog.VariantID
	vcursor  int
	status   string
}

// NewOverrideModel creates an override model over the glyphs of a page.
func NewOverrideModel(lister variantLister, glyphs []pipeline.Glyph) OverrideModel {
	return OverrideModel{
		Glyphs:  glyphs,
		Changes: make(map[int]catalog.VariantID),
		lister:  lister,
		height:  15,
	}
}

func (m OverrideModel) Init() tea.Cmd {
	return nil
}

func (m OverrideModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.stage == stageVariants {
			return m.updateVariants(msg)
		}
		return m.updateGlyphs(msg)
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.clampOffset()
	}
	return m, nil
}

// clampOffset scrolls the glyph list so the cursor row is visible.
func (m *OverrideModel) clampOffset() {
	m.offset = min(max(m.offset, m.cursor-m.height+1), m.cursor)
	m.offset = max(m.offset, 0)
}

func (m OverrideModel) updateGlyphs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "s":
		m.Saved = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampOffset()
	case "down", "j":
		if m.cursor < len(m.Glyphs)-1 {
			m.cursor++
		}
		m.clampOffset()
	case "u":
		delete(m.Changes, m.cursor)
	case "enter":
		if len(m.Glyphs) == 0 {
			return m, nil
		}
		ch := m.Glyphs[m.cursor].Char
		variants := m.lister.AllVariants(ch)
		if len(variants) == 0 {
			m.status = fmt.Sprintf("no variants for %q", ch)
			return m, nil
		}
		m.variants = variants
		m.vcursor = max(slices.Index(variants, m.current(m.cursor)), 0)
		m.stage = stageVariants
	}
	return m, nil
}

func (m OverrideModel) updateVariants(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "backspace":
		m.stage = stageGlyphs
	case "up", "k":
		if m.vcursor > 0 {
			m.vcursor--
		}
	case "down", "j":
		if m.vcursor < len(m.variants)-1 {
			m.vcursor++
		}
	case "enter":
		id := m.variants[m.vcursor]
		if id == m.Glyphs[m.cursor].Variant {
			delete(m.Changes, m.cursor)
		} else {
			m.Changes[m.cursor] = id
		}
		m.stage = stageGlyphs
	}
	return m, nil
}

// current returns the variant glyph i shows, including pending changes.
func (m OverrideModel) current(i int) catalog.VariantID {
	if id, ok := m.Changes[i]; ok {
		return id
	}
	return m.Glyphs[i].Variant
}

func (m OverrideModel) View() string {
	if m.stage == stageVariants {
		return m.viewVariants()
	}
	return m.viewGlyphs()
}

func (m OverrideModel) viewGlyphs() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Glyph"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ choose variant  u undo  s save  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.Glyphs))

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		g := m.Glyphs[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		variant := "blank"
		if id := m.current(i); id != "" {
			variant = id.Name()
		}
		if _, ok := m.Changes[i]; ok {
			variant += " *"
		}
		pos := fmt.Sprintf("%d:%d:%d", g.Column, g.Row, g.Cell)
		rows = append(rows, []string{cursor, fmt.Sprint(i), fmt.Sprintf("%q", g.Char), pos, variant})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Char", "Col:Row:Cell", "Variant").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(m.Glyphs) {
				return lipgloss.NewStyle()
			}
			_, changed := m.Changes[idx]
			switch {
			case idx == m.cursor:
				return listSelectedStyle
			case changed:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case m.Glyphs[idx].IsFallback():
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d changed", m.cursor+1, len(m.Glyphs), len(m.Changes))))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("  " + m.status))
	}

	return b.String()
}

func (m OverrideModel) viewVariants() string {
	var b strings.Builder

	g := m.Glyphs[m.cursor]
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Variants of %q", g.Char)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  esc: back"))
	b.WriteString("\n\n")

	current := m.current(m.cursor)
	for i, id := range m.variants {
		cursor := "  "
		if i == m.vcursor {
			cursor = "> "
		}
		mark := " "
		if id == current {
			mark = StyleSuccess.Render("*")
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, id.Name())
		if i == m.vcursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(strings.Repeat("-", 40)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s current\n", StyleSuccess.Render("*")))

	return b.String()
}

// sortedChanges returns the glyph indexes of the changes in ascending order.
func sortedChanges(changes map[int]catalog.VariantID) []int {
	return slices.Sorted(maps.Keys(changes))
}
