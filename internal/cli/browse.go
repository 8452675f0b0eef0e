package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/render/palette"
	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
	"github.com/matzehuels/slocmap/pkg/view"
)

const (
	// browseFrameInterval paces zoom animation frames.
	browseFrameInterval = time.Second / 30

	// cellAspect is the height of a terminal cell in units of its width.
	cellAspect = 2.0

	// browseChrome is the number of lines around the map: header, label, help.
	browseChrome = 3
)

var (
	browseHeaderStyle = StyleTitle
	browseHintStyle   = lipgloss.NewStyle().Foreground(colorDim)
	browseLabelStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	browseStatusStyle = lipgloss.NewStyle().Foreground(colorYellow)
	browseTextColor   = lipgloss.Color("#1a1a1a")
)

// browseCommand creates the terminal treemap browser.
func (c *CLI) browseCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Explore a source tree as a treemap in the terminal",
		Long: `Explore a source tree as a treemap in the terminal.

Select a rectangle with the arrow keys and press enter to zoom into it;
backspace zooms back out. Zooms are animated; keys pressed while an
animation runs are ignored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := flags.resolve(cmd, cfg.Render, &opts); err != nil {
				return err
			}
			opts.Source = cfg.Render.sourceArg(args)
			return c.runBrowse(cmd.Context(), opts, flags.noCache)
		},
	}

	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	addLoadFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "directory shown first, as a slash-separated path")
	cmd.Flags().Int64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "seed for language colors")
	cmd.Flags().StringToStringVar(&opts.Colors, "color", nil, "fixed language colors (e.g. --color Go=#00add8)")
	cmd.Flags().StringVar(&opts.Separator, "separator", "", `breadcrumb separator (default "\")`)
	cmd.Flags().DurationVar(&opts.Duration, "duration", pipeline.DefaultDuration, "zoom animation length")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options, noCache bool) error {
	opts.Logger = loggerFromContext(ctx)
	if opts.Source == source.Stdin {
		return slerrors.New(slerrors.ErrCodeInvalidSource, "browse reads keys from stdin; pass a file or URL")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading tree...")
	spinner.Start()
	src, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return err
	}
	spinner.Stop()

	m, err := newBrowseModel(src.Tree, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// =============================================================================
// browseModel - Interactive treemap
// =============================================================================

// browseFrameMsg advances the animation started with sequence number seq.
type browseFrameMsg struct {
	seq int
	at  time.Time
}

// browseModel is the bubbletea model of the treemap browser. It lays the
// tree out in terminal cells (one unit per column, cellAspect units per
// row) and drives a view.State with it.
type browseModel struct {
	root *tree.Node
	opts pipeline.Options
	pal  *palette.Palette

	state  *view.State
	cursor int

	// anim is the running zoom, if any. seq tags its frame messages so
	// ticks of an abandoned animation are dropped.
	anim     *view.Transition
	seq      int
	started  time.Time
	progress float64

	width, height int
	status        string
}

// newBrowseModel prepares a model for root. opts must have render defaults
// applied. A focus that does not name a directory of root is an error.
func newBrowseModel(root *tree.Node, opts pipeline.Options) (browseModel, error) {
	m := browseModel{root: root, opts: opts}
	layout := m.layout(80, 24)
	if _, ok := pipeline.ResolveFocus(layout, opts.Focus); !ok {
		return m, slerrors.New(slerrors.ErrCodeInvalidFocus, "focus %q not found", opts.Focus)
	}
	m.pal = pipeline.NewPalette(layout, opts)
	return m, nil
}

// mapSize returns the map area in terminal cells.
func (m browseModel) mapSize() (cols, rows int) {
	return max(m.width, 1), max(m.height-browseChrome, 1)
}

func (m browseModel) layout(cols, rows int) *treemap.Cell {
	o := m.opts
	o.Width = float64(cols)
	o.Height = float64(rows) * cellAspect
	o.PaddingInner = 0
	o.Round = false
	return pipeline.ComputeLayout(m.root, o)
}

// relayout tiles the tree for the current window and keeps the displayed
// directory. A running zoom is dropped.
func (m *browseModel) relayout() {
	path := m.opts.Focus
	if m.state != nil {
		path = m.state.Current().Path()
	}
	root := m.layout(m.mapSize())
	m.state = view.New(root, view.WithDuration(m.opts.Duration))
	if c, ok := pipeline.ResolveFocus(root, path); ok {
		_ = m.state.Jump(c)
	}
	m.anim = nil
	m.cursor = min(m.cursor, max(len(m.state.Current().Children)-1, 0))
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case browseFrameMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.advance(msg.at)
	}
	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	if m.state == nil || m.anim != nil {
		return m, nil
	}
	m.status = ""

	switch msg.String() {
	case "up", "k", "left", "h", "shift+tab":
		m.move(-1)
	case "down", "j", "right", "l", "tab":
		m.move(1)
	case "enter", " ":
		target := m.selected()
		if target == nil {
			return m, nil
		}
		t, err := m.state.ZoomIn(target)
		if errors.Is(err, view.ErrLeaf) {
			m.status = target.Name() + " is a file"
			return m, nil
		}
		return m.begin(t, err)
	case "backspace", "esc", "u":
		return m.begin(m.state.ZoomOut())
	}
	return m, nil
}

func (m *browseModel) move(delta int) {
	n := len(m.state.Current().Children)
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
}

func (m browseModel) selected() *treemap.Cell {
	if m.state == nil {
		return nil
	}
	children := m.state.Current().Children
	if m.cursor < 0 || m.cursor >= len(children) {
		return nil
	}
	return children[m.cursor]
}

// begin starts animating t. Refused zooms (at the root, or while another
// zoom runs) leave the model unchanged.
func (m browseModel) begin(t *view.Transition, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		return m, nil
	}
	m.anim = t
	m.seq++
	m.started = time.Now()
	m.progress = 0
	return m, browseTick(m.seq)
}

func browseTick(seq int) tea.Cmd {
	return tea.Tick(browseFrameInterval, func(t time.Time) tea.Msg {
		return browseFrameMsg{seq: seq, at: t}
	})
}

// advance moves the animation to now and completes it once its duration
// has passed. After zooming out the directory zoomed out of is selected.
func (m browseModel) advance(now time.Time) (tea.Model, tea.Cmd) {
	if m.anim == nil {
		return m, nil
	}
	elapsed := now.Sub(m.started)
	if !m.anim.Done(elapsed) {
		m.progress = m.anim.Progress(elapsed)
		return m, browseTick(m.seq)
	}

	from := m.anim.From
	err := m.state.Complete(m.anim)
	m.anim = nil
	if err != nil {
		return m, nil
	}
	m.cursor = 0
	for i, c := range m.state.Current().Children {
		if c == from {
			m.cursor = i
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	if m.state == nil || m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	cols, rows := m.mapSize()
	cv := newCanvas(cols, rows)

	switch {
	case m.anim == nil:
		cv.drawLayer(m.state.Layer(), m.selected(), m.pal)
	case m.anim.ZoomingIn():
		cv.drawLayer(m.anim.Outgoing(m.progress), nil, m.pal)
		cv.drawLayer(m.anim.Incoming(m.progress), nil, m.pal)
	default:
		cv.drawLayer(m.anim.Incoming(m.progress), nil, m.pal)
		cv.drawLayer(m.anim.Outgoing(m.progress), nil, m.pal)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		cv.String(),
		m.footer(),
		m.help(),
	)
}

func (m browseModel) header() string {
	current := m.state.Current()
	if m.anim != nil {
		current = m.anim.To
	}
	hint := "  enter to zoom in"
	if current.Parent != nil {
		hint = "  -  backspace to zoom out"
	}
	line := browseHeaderStyle.Render(view.Breadcrumb(current, m.opts.Separator)) + browseHintStyle.Render(hint)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m browseModel) footer() string {
	sel := m.selected()
	if sel == nil || m.anim != nil {
		return ""
	}
	line := strings.Join(view.Label(sel), "  ·  ")
	if lang := sel.Node.Language; lang != "" {
		line += "  ·  " + lang
	}
	return browseLabelStyle.MaxWidth(m.width).Render(line)
}

func (m browseModel) help() string {
	if m.status != "" {
		return browseStatusStyle.Render(m.status)
	}
	return browseHintStyle.MaxWidth(m.width).Render("↑/↓ select  ⏎ zoom in  ⌫ zoom out  q quit")
}

// =============================================================================
// canvas - Character grid
// =============================================================================

type canvasCell struct {
	r    rune // 0 for the second column of a wide rune
	bg   string
	bold bool
}

// canvas is a grid of terminal cells. Cells with an empty background use
// the terminal's.
type canvas struct {
	w, h  int
	cells []canvasCell
}

func newCanvas(w, h int) *canvas {
	cv := &canvas{w: w, h: h, cells: make([]canvasCell, w*h)}
	for i := range cv.cells {
		cv.cells[i].r = ' '
	}
	return cv
}

// span converts a layout rectangle to clipped cell bounds.
func (cv *canvas) span(r treemap.Rect) (c0, r0, c1, r1 int) {
	c0 = clamp(int(math.Round(r.X0)), 0, cv.w)
	c1 = clamp(int(math.Round(r.X1)), 0, cv.w)
	r0 = clamp(int(math.Round(r.Y0/cellAspect)), 0, cv.h)
	r1 = clamp(int(math.Round(r.Y1/cellAspect)), 0, cv.h)
	return
}

// drawLayer fills each frame's rectangle with its cell color, leaving the
// last column and row blank as a border. Labels are drawn for frames that
// are at least half faded in.
func (cv *canvas) drawLayer(frames []view.Frame, selected *treemap.Cell, pal *palette.Palette) {
	for _, f := range frames {
		c0, r0, c1, r1 := cv.span(f.Rect)
		if c1 <= c0 || r1 <= r0 {
			continue
		}
		fill := pal.Fill(f.Cell)
		for y := r0; y < r1; y++ {
			for x := c0; x < c1; x++ {
				cell := canvasCell{r: ' ', bg: fill}
				if (x == c1-1 && c1-c0 > 1) || (y == r1-1 && r1-r0 > 1) {
					cell.bg = ""
				}
				cv.cells[y*cv.w+x] = cell
			}
		}
		if f.Opacity < 0.5 {
			continue
		}
		name := f.Cell.Name()
		if f.Cell == selected {
			name = "▸ " + name
		}
		cv.text(c0, r0, c1-1, name, f.Cell == selected)
		if r1-r0 > 2 {
			cv.text(c0, r0+1, c1-1, humanize.Comma(int64(f.Cell.Value)), false)
		}
	}
}

// text writes s at row y from column x0, stopping before column x1.
func (cv *canvas) text(x0, y, x1 int, s string, bold bool) {
	if y < 0 || y >= cv.h {
		return
	}
	x := x0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > x1 || x+rw > cv.w {
			return
		}
		if x >= 0 {
			if rw == 2 {
				cv.put(x+1, y, ' ', bold)
			}
			cv.put(x, y, r, bold)
			if rw == 2 {
				cv.cells[y*cv.w+x+1].r = 0
			}
		}
		x += rw
	}
}

// put writes a single-column rune at x, y. Cells holding rune 0 continue the
// wide rune to their left; overwriting either half blanks the other.
func (cv *canvas) put(x, y int, r rune, bold bool) {
	row := cv.cells[y*cv.w : (y+1)*cv.w]
	if row[x].r == 0 && x > 0 {
		row[x-1].r = ' '
	}
	if x+1 < len(row) && row[x+1].r == 0 {
		row[x+1].r = ' '
	}
	row[x].r, row[x].bold = r, bold
}

// String renders the grid, styling runs of equal cells together.
func (cv *canvas) String() string {
	var b strings.Builder
	for y := range cv.h {
		row := cv.cells[y*cv.w : (y+1)*cv.w]
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end].bg == row[start].bg && row[end].bold == row[start].bold {
				end++
			}
			var run strings.Builder
			for _, c := range row[start:end] {
				if c.r != 0 {
					run.WriteRune(c.r)
				}
			}
			style := lipgloss.NewStyle().Bold(row[start].bold)
			if bg := row[start].bg; bg != "" {
				style = style.Background(lipgloss.Color(bg)).Foreground(browseTextColor)
			}
			b.WriteString(style.Render(run.String()))
			start = end
		}
		if y < cv.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
