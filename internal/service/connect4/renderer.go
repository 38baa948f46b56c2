package connect4

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
)

// CellRef points at one board cell.
type CellRef struct {
	Column int
	Row    int
}

type RenderOptions struct {
	HUDHeader string
	HUDStatus string
	// Highlight marks the last placed stone.
	Highlight *CellRef
	// Winning lists cells of the winning line.
	Winning []CellRef
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, b board.Board, opts RenderOptions) ([]byte, error)
}

type pngBoardRenderer struct{}

func NewPNGBoardRenderer() BoardRenderer { return &pngBoardRenderer{} }

const (
	cellSize     = 64
	discInset    = 6
	sideMargin   = 28
	topMargin    = 92
	bottomMargin = 40
	frameRadius  = 18
	panelHeight  = 30
	panelGap     = 8
	panelRadius  = 10
	panelPadX    = 18
)

var (
	backgroundColor = color.RGBA{244, 241, 234, 255}
	frameColor      = color.RGBA{28, 76, 168, 255}
	frameShadow     = color.NRGBA{0, 0, 0, 60}
	holeColor       = color.RGBA{226, 232, 244, 255}
	highlightColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	winningColor    = color.NRGBA{R: 40, G: 220, B: 120, A: 230}
	hudPanelColor   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudStatusColor  = color.NRGBA{R: 44, G: 48, B: 70, A: 245}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	labelColor      = color.NRGBA{R: 60, G: 64, B: 80, A: 255}
)

func (r *pngBoardRenderer) RenderPNG(ctx context.Context, b board.Board, opts RenderOptions) ([]byte, error) {
	boardW := cellSize * board.Columns
	boardH := cellSize * board.Rows
	img := image.NewRGBA(image.Rect(0, 0, boardW+sideMargin*2, boardH+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	frame := image.Rect(sideMargin, topMargin, sideMargin+boardW, topMargin+boardH)
	drawRoundedPanel(img, frame.Add(image.Pt(4, 8)), frameRadius, frameShadow)
	drawRoundedPanel(img, frame, frameRadius, frameColor)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawHUD(img, drawer, frame, opts)

	for c := 0; c < board.Columns; c++ {
		for row := 0; row < board.Rows; row++ {
			cell := cellRect(frame.Min, c, row)
			center := image.Pt(cell.Min.X+cellSize/2, cell.Min.Y+cellSize/2)
			drawDisc(img, center, cellSize/2-discInset, holeColor)
			slot, ok := b[c][row].Slot()
			if !ok {
				continue
			}
			sprite, err := discImage(slot, cellSize-discInset*2)
			if err != nil {
				return nil, err
			}
			imagedraw.Draw(img, cell.Inset(discInset), sprite, image.Point{}, imagedraw.Over)
		}
	}
	for _, w := range opts.Winning {
		drawRing(img, frame.Min, w, winningColor)
	}
	if h := opts.Highlight; h != nil {
		cell := cellRect(frame.Min, h.Column, h.Row)
		drawDisc(img, image.Pt(cell.Min.X+cellSize/2, cell.Min.Y+cellSize/2), 5, highlightColor)
	}

	// 열 번호 1..7
	for c := 0; c < board.Columns; c++ {
		cx := frame.Min.X + c*cellSize + cellSize/2
		drawCenteredText(drawer, strconv.Itoa(c+1), cx, frame.Max.Y+24, labelColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// cellRect maps a board cell to pixels. Row 0 is drawn at the bottom.
func cellRect(origin image.Point, column, row int) image.Rectangle {
	x := origin.X + column*cellSize
	y := origin.Y + (board.Rows-1-row)*cellSize
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

func drawHUD(img *image.RGBA, drawer *font.Drawer, frame image.Rectangle, opts RenderOptions) {
	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Connect Four"
	}
	status := strings.TrimSpace(opts.HUDStatus)

	statusBottom := frame.Min.Y - 14
	statusTop := statusBottom - panelHeight
	titleBottom := statusTop - panelGap
	titleRect := image.Rect(frame.Min.X, titleBottom-panelHeight, frame.Max.X, titleBottom)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(drawer.Face, title, titleRect.Dx()-panelPadX*2), hudTextPrimary)

	if status == "" {
		return
	}
	w := drawer.MeasureString(status).Round() + panelPadX*2
	if w > frame.Dx() {
		w = frame.Dx()
	}
	left := frame.Min.X + (frame.Dx()-w)/2
	statusRect := image.Rect(left, statusTop, left+w, statusBottom)
	drawRoundedPanel(img, statusRect, panelRadius, hudStatusColor)
	drawCenteredString(drawer, statusRect, truncateWithEllipsis(drawer.Face, status, w-panelPadX*2), hudTextPrimary)
}

func drawRing(img *image.RGBA, origin image.Point, ref CellRef, clr color.Color) {
	cell := cellRect(origin, ref.Column, ref.Row)
	center := image.Pt(cell.Min.X+cellSize/2, cell.Min.Y+cellSize/2)
	outer := cellSize/2 - discInset + 2
	inner := outer - 4
	for y := -outer; y <= outer; y++ {
		for x := -outer; x <= outer; x++ {
			d := x*x + y*y
			if d <= outer*outer && d > inner*inner {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	d := font.Drawer{Face: face}
	if d.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if c := string(runes) + ellipsis; d.MeasureString(c).Round() <= maxWidth {
			return c
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if m := min(rect.Dx(), rect.Dy()) / 2; radius > m {
		radius = m
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	for _, c := range []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	} {
		drawQuarter(img, c, radius, clr, rect)
	}
}

// drawQuarter fills the corner disc clipped to the part outside the panel core.
func drawQuarter(img *image.RGBA, center image.Point, radius int, clr color.Color, rect image.Rectangle) {
	core := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	sides := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	rr := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			p := image.Pt(center.X+x, center.Y+y)
			if x*x+y*y > rr || p.In(core) || p.In(sides) || !p.In(rect) {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	rr := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= rr {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// blendPixel composites clr over the pixel at (x, y).
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/0xffff) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/0xffff) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/0xffff) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/0xffff) >> 8),
	})
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	m := drawer.Face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	drawCenteredText(drawer, text, rect.Min.X+rect.Dx()/2, baseline, clr)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int, clr color.Color) {
	width := drawer.MeasureString(text).Round()
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
