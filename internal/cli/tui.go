package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/cartogram/pkg/cartogram"
	"github.com/matzehuels/cartogram/pkg/geo"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

const (
	progressBarWidth = 32
	progressHistory  = 8 // iterations kept in the table
)

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

// iterationMsg reports one completed displacement pass.
type iterationMsg cartogram.Progress

// runDoneMsg carries the outcome of the pipeline run.
type runDoneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// ProgressModel - Live iteration progress
// =============================================================================

// ProgressModel is the bubbletea model that follows a running transform.
type ProgressModel struct {
	MaxIterations   int
	MaxAverageError float64

	History []cartogram.Progress
	Result  *pipeline.Result
	Err     error
	Aborted bool
}

// NewProgressModel creates a progress model for the given stop conditions.
func NewProgressModel(maxIterations int, maxAverageError float64) ProgressModel {
	return ProgressModel{MaxIterations: maxIterations, MaxAverageError: maxAverageError}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		}
	case iterationMsg:
		m.History = append(m.History, cartogram.Progress(msg))
	case runDoneMsg:
		m.Result = msg.result
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.Result != nil || m.Err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Transforming"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	done := 0
	current := "-"
	if n := len(m.History); n > 0 {
		last := m.History[n-1]
		done = last.Iteration
		current = fmt.Sprintf("%.4f", last.AverageError)
	}
	b.WriteString(m.bar(done))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d  error %s  target %.4f",
		done, m.MaxIterations, current, m.MaxAverageError)))
	b.WriteString("\n")

	if len(m.History) > 0 {
		b.WriteString("\n")
		b.WriteString(m.historyTable())
		b.WriteString("\n")
	}
	return b.String()
}

// bar draws the share of the iteration budget already used.
func (m ProgressModel) bar(done int) string {
	filled := 0
	if m.MaxIterations > 0 {
		filled = progressBarWidth * done / m.MaxIterations
	}
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", progressBarWidth-filled))
}

// historyTable lists the most recent iterations with the error change.
func (m ProgressModel) historyTable() string {
	start := len(m.History) - progressHistory
	if start < 0 {
		start = 0
	}

	rows := [][]string{}
	for i := start; i < len(m.History); i++ {
		p := m.History[i]
		delta := ""
		if i > 0 {
			delta = fmt.Sprintf("%+.4f", p.AverageError-m.History[i-1].AverageError)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Iteration),
			fmt.Sprintf("%.4f", p.AverageError),
			delta,
			p.Duration.Round(100 * time.Microsecond).String(),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Iteration", "Avg error", "Change", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == len(rows)-1 {
				return cell.Foreground(colorCyan)
			}
			return cell.Foreground(colorGray)
		}).
		Render()
}

// =============================================================================
// Program
// =============================================================================

// runWithProgress executes the pipeline while a bubbletea program shows
// every completed iteration. Quitting the view cancels the run.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, coll *geo.Collection, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Info lines would tear through the redrawn view.
	if opts.Logger != nil && opts.Logger.GetLevel() > log.DebugLevel {
		opts.Logger = newLogger(io.Discard, log.WarnLevel)
	}

	p := tea.NewProgram(NewProgressModel(opts.MaxIterations, opts.MaxAverageError),
		tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	opts.Observer = cartogram.ObserverFunc(func(pr cartogram.Progress) {
		p.Send(iterationMsg(pr))
	})
	go func() {
		res, err := runner.Execute(ctx, coll, opts)
		p.Send(runDoneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	m := final.(ProgressModel)
	switch {
	case m.Aborted:
		return nil, context.Canceled
	case m.Err != nil:
		return nil, m.Err
	}
	return m.Result, nil
}
