package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// maxInstsStep is how far +/- move the max-insts bound.
const maxInstsStep = 10

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "explore <trace>",
		Short: "Browse a trace interactively",
		Long: `Open an interactive view of the instantiation graph.

Keys:
  1-4      toggle the smart, enodes, given-equalities and all-equalities disablers
  t        toggle ignore-theory-solving
  + / -    raise or lower max-insts (0 removes the bound)
  ↑/↓ j/k  move the cursor
  enter    show or hide node details
  q        quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}
			chain, ds, err := view.resolve(cmd, c.cfg, sess)
			if err != nil {
				return err
			}
			m, err := NewExploreModel(ctx, sess, chain, ds)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())).Run()
			return err
		},
	}
	view.register(cmd)
	return cmd
}

// =============================================================================
// ExploreModel - Interactive graph view
// =============================================================================

// ExploreModel is the bubbletea model behind the explore command. Every
// toggle re-applies the view on its session.
type ExploreModel struct {
	ctx  context.Context
	sess *analysis.Session

	// base is the configured chain without the filters the model controls.
	base         filter.Chain
	retain       bool
	ignoreTheory bool
	maxInsts     int
	disabled     map[disabler.Disabler]bool

	view    *analysis.View
	nodes   []instgraph.NodeIdx
	Cursor  int
	Offset  int
	Height  int
	Details bool
	Err     error
}

// NewExploreModel applies chain and ds to sess and returns a model whose
// toggles start from them.
func NewExploreModel(ctx context.Context, sess *analysis.Session, chain filter.Chain, ds []disabler.Disabler) (ExploreModel, error) {
	m := ExploreModel{
		ctx:      ctx,
		sess:     sess,
		Height:   15,
		disabled: make(map[disabler.Disabler]bool, len(disabler.All)),
	}
	for _, f := range chain {
		switch f.Kind() {
		case filter.KindIgnoreTheorySolving:
			m.ignoreTheory = true
		case filter.KindMaxInsts:
			m.maxInsts, m.retain = f.N(), f.Retain()
		default:
			m.base = append(m.base, f)
		}
	}
	for _, d := range ds {
		m.disabled[d] = true
	}
	if err := m.apply(); err != nil {
		return ExploreModel{}, err
	}
	return m, nil
}

// Chain returns the chain the model currently applies.
func (m ExploreModel) Chain() filter.Chain {
	var chain filter.Chain
	if m.ignoreTheory {
		chain = append(chain, filter.IgnoreTheorySolving())
	}
	chain = append(chain, m.base...)
	if m.maxInsts > 0 {
		if m.retain {
			chain = append(chain, filter.MaxInstsWithAncestors(m.maxInsts))
		} else {
			chain = append(chain, filter.MaxInsts(m.maxInsts))
		}
	}
	return chain
}

// Disablers returns the enabled disablers in display order.
func (m ExploreModel) Disablers() []disabler.Disabler {
	var ds []disabler.Disabler
	for _, d := range disabler.All {
		if m.disabled[d] {
			ds = append(ds, d)
		}
	}
	return ds
}

// Nodes returns the visible nodes, costliest first.
func (m ExploreModel) Nodes() []instgraph.NodeIdx { return m.nodes }

func (m *ExploreModel) apply() error {
	v, err := m.sess.View(m.ctx, m.Chain(), m.Disablers())
	if err != nil {
		return err
	}
	m.view = v
	m.nodes = m.sess.Graph().VisibleNodes()
	sortByCost(m.sess.Graph(), m.nodes)
	m.Cursor = min(m.Cursor, max(len(m.nodes)-1, 0))
	m.Offset = min(m.Offset, m.Cursor)
	return nil
}

// reapply applies the current toggles and keeps the previous state if the
// session rejects them.
func (m ExploreModel) reapply(prev ExploreModel) ExploreModel {
	if err := m.apply(); err != nil {
		prev.Err = err
		return prev
	}
	m.Err = nil
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		prev := m
		prev.disabled = cloneToggles(m.disabled)
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Details = !m.Details
		case "1", "2", "3", "4":
			i, _ := strconv.Atoi(key)
			d := disabler.All[i-1]
			m.disabled = cloneToggles(m.disabled)
			m.disabled[d] = !m.disabled[d]
			return m.reapply(prev), nil
		case "t":
			m.ignoreTheory = !m.ignoreTheory
			return m.reapply(prev), nil
		case "+", "=":
			m.maxInsts += maxInstsStep
			return m.reapply(prev), nil
		case "-":
			m.maxInsts = max(m.maxInsts-maxInstsStep, 0)
			return m.reapply(prev), nil
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func cloneToggles(t map[disabler.Disabler]bool) map[disabler.Disabler]bool {
	out := make(map[disabler.Disabler]bool, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (m ExploreModel) View() string {
	var b strings.Builder
	g := m.sess.Graph()

	b.WriteString(StyleTitle.Render("Instantiation Graph"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("1-4 disablers  t theory  +/- max-insts  ⏎ details  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.togglesLine())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", listDimStyle.Render("chain:"), listNormalStyle.Render(m.Chain().String()))
	fmt.Fprintf(&b, "%s %s / %d\n\n", listDimStyle.Render("visible:"),
		StyleNumber.Render(strconv.Itoa(m.view.Visible)), g.NodeCount())

	if len(m.nodes) == 0 {
		b.WriteString(listDimStyle.Render("  nothing visible"))
		b.WriteString("\n")
		m.writeError(&b)
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.nodes))
	tr := m.sess.Trace()
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		n := m.nodes[i]
		info, _ := analysis.DescribeNode(tr, g, n)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.Itoa(n.Index()), info.Index, info.Kind, truncate(info.Summary, 40), info.Cost})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Label", "Kind", "Summary", "Cost").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 5 {
				return listDimStyle
			}
			return listNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.nodes))))
	b.WriteString("\n")

	if m.Details {
		b.WriteString("\n")
		info, _ := analysis.DescribeNode(tr, g, m.nodes[m.Cursor])
		writeNodeDetails(&b, info)
	}
	m.writeError(&b)
	return b.String()
}

func (m ExploreModel) togglesLine() string {
	parts := make([]string, 0, len(disabler.All)+1)
	for i, d := range disabler.All {
		parts = append(parts, toggle(strconv.Itoa(i+1), d.String(), m.disabled[d]))
	}
	parts = append(parts, toggle("t", "ignore-theory-solving", m.ignoreTheory))
	return strings.Join(parts, "  ")
}

func toggle(key, label string, on bool) string {
	box := "[ ]"
	style := listDimStyle
	if on {
		box, style = "[x]", listSelectedStyle
	}
	return style.Render(fmt.Sprintf("%s %s %s", key, box, label))
}

func (m ExploreModel) writeError(b *strings.Builder) {
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(styleIconError.Render(iconError + " " + m.Err.Error()))
		b.WriteString("\n")
	}
}

// writeNodeDetails is the compact form of writeNodeInfo used inside the
// explorer.
func writeNodeDetails(b *strings.Builder, info analysis.NodeInfo) {
	fields := [][2]string{
		{"label", info.Index},
		{"kind", info.Kind},
		{"summary", info.Summary},
		{"cost", info.Cost},
		{"to root", info.ToRoot},
		{"to leaf", info.ToLeaf},
	}
	if info.Body != "" {
		fields = append(fields, [2]string{"body", info.Body})
	}
	if len(info.Bound) > 0 {
		fields = append(fields, [2]string{"bound", strings.Join(info.Bound, ", ")})
	}
	if len(info.Yields) > 0 {
		fields = append(fields, [2]string{"yields", strings.Join(info.Yields, ", ")})
	}
	for _, f := range fields {
		fmt.Fprintf(b, "  %s %s\n", listDimStyle.Render(fmt.Sprintf("%-8s", f[0])), listNormalStyle.Render(f[1]))
	}
}
