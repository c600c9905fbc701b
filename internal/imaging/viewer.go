package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/tui/styles"
	"github.com/Dicklesworthstone/diveboard/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

// ErrNoTerminal is returned by Display when stdout is not a terminal.
var ErrNoTerminal = errors.New("viewer needs a terminal")

const (
	defaultCols = 80
	defaultRows = 24
	chromeRows  = 2 // title and hint lines
)

const (
	closedByKey     = "key"
	closedByTimeout = "timeout"
)

type timeoutMsg struct{}

// viewer is the Bubble Tea model that shows one image until a key press
// or until wait elapses.
type viewer struct {
	title    string
	img      image.Image
	wait     time.Duration
	renderer *lipgloss.Renderer
	styles   *styles.Styles

	width    int
	height   int
	closedBy string
}

func newViewer(title string, img image.Image, wait time.Duration, r *lipgloss.Renderer, cols, rows int) viewer {
	return viewer{
		title:    title,
		img:      img,
		wait:     wait,
		renderer: r,
		styles:   styles.FromTheme(r, theme.Current),
		width:    cols,
		height:   rows,
	}
}

// Init implements tea.Model.
func (v viewer) Init() tea.Cmd {
	if v.wait <= 0 {
		return nil
	}
	return tea.Tick(v.wait, func(time.Time) tea.Msg { return timeoutMsg{} })
}

// Update implements tea.Model.
func (v viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		v.closedBy = closedByKey
		return v, tea.Quit
	case timeoutMsg:
		v.closedBy = closedByTimeout
		return v, tea.Quit
	}
	return v, nil
}

// View implements tea.Model.
func (v viewer) View() string {
	cols, rows := v.width, v.height
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= chromeRows {
		rows = defaultRows
	}

	b := v.img.Bounds()
	title := v.styles.Title.Render(v.title) + "  " + v.styles.Dimmed.Render(fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	hint := "press any key to close"
	if v.wait > 0 {
		hint = fmt.Sprintf("closes in %s or on any key", v.wait)
	}
	body := renderHalfBlocks(v.renderer, v.img, cols, rows-chromeRows)
	return lipgloss.JoinVertical(lipgloss.Left, title, body, v.styles.Dimmed.Render(hint))
}

// renderHalfBlocks draws img into at most cols x rows terminal cells. Each
// cell shows two pixels: the upper one as foreground of "▀", the lower one
// as background. Images are shrunk to fit, never enlarged.
func renderHalfBlocks(r *lipgloss.Renderer, img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return ""
	}
	w, h := fit(b.Dx(), b.Dy(), cols, rows*2)
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			style := r.NewStyle().Foreground(hexColor(scaled.RGBAAt(x, y)))
			if y+1 < h {
				style = style.Background(hexColor(scaled.RGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render("▀"))
		}
	}
	return sb.String()
}

// fit scales w x h down to fit inside maxW x maxH, keeping the aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if sx := float64(maxW) / float64(w); sx < scale {
		scale = sx
	}
	if sy := float64(maxH) / float64(h); sy < scale {
		scale = sy
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// Display shows the image in a viewer titled window. With wait <= 0 it
// blocks until a key is pressed; otherwise it also closes after wait.
func (h *Handle) Display(ctx context.Context, window string, wait time.Duration) error {
	if h.img == nil {
		return ErrNoImage
	}

	cols, rows := defaultCols, defaultRows
	opts := []tea.ProgramOption{tea.WithContext(ctx)}

	out := h.out
	if out == nil {
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			return ErrNoTerminal
		}
		if w, hgt, err := term.GetSize(fd); err == nil {
			cols, rows = w, hgt
		}
		out = os.Stdout
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithOutput(out))
	if h.in != nil {
		opts = append(opts, tea.WithInput(h.in))
	}

	model := newViewer(window, h.img, wait, lipgloss.NewRenderer(out), cols, rows)
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return fmt.Errorf("viewer %q: %w", window, err)
	}
	if v, ok := final.(viewer); ok {
		h.logger.Debug("viewer closed", "window", window, "by", v.closedBy)
	}
	return nil
}

// ShowImage is Display with failures logged and reported as false.
func (h *Handle) ShowImage(window string, wait time.Duration) bool {
	if err := h.Display(context.Background(), window, wait); err != nil {
		h.logger.Error("show image failed", "window", window, "err", err)
		return false
	}
	return true
}
