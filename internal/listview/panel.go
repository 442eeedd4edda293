package listview

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	runningStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#00c46a")).
			PaddingLeft(1)
	cyclingStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#ffb545")).
			PaddingLeft(1)
	emptyStyle = lipgloss.NewStyle().Faint(true)
)

type Row struct {
	ID   string
	Kind workout.Kind
	Text string
}

// Panel is the ordered workout list. Rows keep the order they were rendered
// in.
type Panel struct {
	mu   sync.Mutex
	rows []Row
}

func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) RenderRow(w workout.Workout) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.rows {
		if r.ID == w.ID {
			return fmt.Errorf("row %s already rendered", w.ID)
		}
	}
	p.rows = append(p.rows, Row{ID: w.ID, Kind: w.Kind, Text: Format(w)})
	return nil
}

func (p *Panel) RemoveRow(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.rows {
		if r.ID == id {
			p.rows = append(p.rows[:i], p.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (p *Panel) ClearRows() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = nil
	return nil
}

func (p *Panel) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Row(nil), p.rows...)
}

// View renders every row, one block per workout.
func (p *Panel) View() string {
	rows := p.Rows()
	if len(rows) == 0 {
		return emptyStyle.Render("No workouts yet. Drop a pin and add one.")
	}

	blocks := make([]string, 0, len(rows))
	for _, r := range rows {
		style := runningStyle
		if r.Kind == workout.KindCycling {
			style = cyclingStyle
		}
		blocks = append(blocks, style.Render(r.Text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// Format is the plain text of a row: the title line, then distance, duration,
// the derived metric and the kind-specific input.
func Format(w workout.Workout) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(w.Description))
	b.WriteString("  ")
	b.WriteString(w.ID)
	b.WriteString("\n")

	value, unit := w.Metric()
	fields := []string{
		fmt.Sprintf("%s %s km", w.Kind.Emoji(), num(w.Distance)),
		fmt.Sprintf("⏱ %s min", num(w.Duration)),
		fmt.Sprintf("⚡️ %.2f %s", value, unit),
	}
	switch w.Kind {
	case workout.KindRunning:
		if w.Running != nil {
			fields = append(fields, fmt.Sprintf("🦶🏼 %d spm", w.Running.Cadence))
		}
	case workout.KindCycling:
		if w.Cycling != nil {
			fields = append(fields, fmt.Sprintf("⛰ %s m", num(w.Cycling.ElevationGain)))
		}
	}
	b.WriteString(strings.Join(fields, "  "))
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
