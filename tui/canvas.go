package tui

import (
	"math"
	"strings"

	"github.com/zappabad/marketbubbles/internal/bubble/view"
	"github.com/zappabad/marketbubbles/tui/styles"
)

const (
	ringRune         = '▒'
	selectedRingRune = '█'
)

type cell struct {
	ch    rune
	color string
	bold  bool
}

// canvas is a grid of terminal cells the snapshot is rasterized into.
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

func (c *canvas) set(col, row int, ch rune, color string, bold bool) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row*c.cols+col] = cell{ch: ch, color: color, bold: bold}
}

func (c *canvas) at(col, row int) cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return cell{}
	}
	return c.cells[row*c.cols+col]
}

func (c *canvas) text(col, row int, s string, color string, bold bool) {
	for i, r := range []rune(s) {
		c.set(col+i, row, r, color, bold)
	}
}

// String renders the grid, styling runs of equally colored cells at once.
func (c *canvas) String() string {
	var b strings.Builder
	run := make([]rune, 0, c.cols)

	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.cols : (row+1)*c.cols]
		for i := 0; i < len(line); {
			cur := line[i]
			run = run[:0]
			for i < len(line) && line[i].color == cur.color && line[i].bold == cur.bold {
				run = append(run, line[i].ch)
				i++
			}
			if cur.color == "" && !cur.bold {
				b.WriteString(string(run))
				continue
			}
			b.WriteString(styles.Cell(cur.color, cur.bold).Render(string(run)))
		}
	}
	return b.String()
}

// drawBubble rasterizes one bubble as an ellipse in cell space. The
// interior is cleared so later bubbles occlude earlier ones.
func (c *canvas) drawBubble(f view.BubbleFrame, cw, ch float64) {
	cx, cy := f.X/cw, f.Y/ch
	rx, ry := f.Size/2/cw, f.Size/2/ch
	if rx <= 0 || ry <= 0 {
		return
	}

	inside := func(col, row int) bool {
		dx := (float64(col) + 0.5 - cx) / rx
		dy := (float64(row) + 0.5 - cy) / ry
		return dx*dx+dy*dy <= 1
	}

	ring, bold := ringRune, false
	if f.Selected {
		ring, bold = selectedRingRune, true
	}

	for row := int(math.Floor(cy - ry)); row <= int(math.Ceil(cy+ry)); row++ {
		for col := int(math.Floor(cx - rx)); col <= int(math.Ceil(cx+rx)); col++ {
			if !inside(col, row) {
				continue
			}
			edge := !inside(col-1, row) || !inside(col+1, row) ||
				!inside(col, row-1) || !inside(col, row+1)
			if edge {
				c.set(col, row, ring, f.Color, bold)
			} else {
				c.set(col, row, ' ', "", false)
			}
		}
	}

	width := int(2*rx) - 2
	if width <= 0 {
		return
	}
	row := int(math.Floor(cy))
	center := int(math.Floor(cx))
	c.centered(cx, row, truncate(f.ID, width), "", true)
	if inside(center, row+2) {
		c.centered(cx, row+1, truncate(f.ChangeLabel, width), f.Color, false)
	}
}

func (c *canvas) centered(cx float64, row int, s string, color string, bold bool) {
	n := len([]rune(s))
	c.text(int(math.Round(cx-float64(n)/2)), row, s, color, bold)
}

// drawPopup draws the detail box at the popup rectangle.
func (c *canvas) drawPopup(d *view.Detail, cw, ch float64) {
	left := int(d.Popup.Left / cw)
	top := int(d.Popup.Top / ch)
	w := int(d.Popup.Width / cw)
	h := int(d.Popup.Height / ch)
	if w < 12 {
		w = 12
	}
	if h < 7 {
		h = 7
	}

	border := string(styles.PopupBorderColor)
	right, bottom := left+w-1, top+h-1
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			var r rune
			switch {
			case row == top && col == left:
				r = '╭'
			case row == top && col == right:
				r = '╮'
			case row == bottom && col == left:
				r = '╰'
			case row == bottom && col == right:
				r = '╯'
			case row == top || row == bottom:
				r = '─'
			case col == left || col == right:
				r = '│'
			default:
				c.set(col, row, ' ', "", false)
				continue
			}
			c.set(col, row, r, border, false)
		}
	}

	inner := w - 4
	x := left + 2
	label := string(styles.PopupLabelColor)

	c.text(x, top+1, truncate(d.Title, inner), string(styles.PopupTitleColor), true)
	c.field(x, top+3, inner, "Price", "$"+d.Price, label, "")
	c.field(x, top+4, inner, "Change", d.Change, label, d.ChangeColor)
	c.field(x, top+5, inner, "Market cap", d.MarketCap, label, "")
	if h > 8 {
		c.text(x, bottom-1, truncate("esc to close", inner), string(styles.PopupHintColor), false)
	}
}

func (c *canvas) field(x, row, width int, name, value, labelColor, valueColor string) {
	const labelWidth = 12
	c.text(x, row, truncate(name, width), labelColor, false)
	if width > labelWidth {
		c.text(x+labelWidth, row, truncate(value, width-labelWidth), valueColor, valueColor != "")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// render rasterizes snap onto a cols x rows grid.
func render(snap view.Snapshot, cols, rows int, cw, ch float64) string {
	c := newCanvas(cols, rows)
	for _, f := range snap.Bubbles {
		c.drawBubble(f, cw, ch)
	}
	if snap.Detail != nil {
		c.drawPopup(snap.Detail, cw, ch)
	}
	return c.String()
}
