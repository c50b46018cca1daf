package services

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

// Frame embeds use a 3:2 image.
const (
	CardWidth  = 1200
	CardHeight = 800
)

type CardRenderer interface {
	// RenderPNG returns the share card for p. Output is cached per pattern id.
	RenderPNG(p domain.Pattern) ([]byte, error)
}

type cardRenderer struct {
	log *logger.Logger

	// gg contexts are not safe to share, but faces are reused under mu.
	mu        sync.Mutex
	titleFace font.Face
	bodyFace  font.Face
	metaFace  font.Face

	cache sync.Map // int -> []byte
}

var (
	cardBackground = color.NRGBA{R: 0xF4, G: 0xEE, B: 0xE1, A: 0xFF}
	cardInk        = color.NRGBA{R: 0x2B, G: 0x24, B: 0x1E, A: 0xFF}
	cardAccent     = color.NRGBA{R: 0x9C, G: 0x3D, B: 0x2A, A: 0xFF}
)

func NewCardRenderer(log *logger.Logger) (CardRenderer, error) {
	serviceLog := log.With("service", "CardRenderer")

	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	return &cardRenderer{
		log:       serviceLog,
		titleFace: truetype.NewFace(bold, &truetype.Options{Size: 64, DPI: 72}),
		bodyFace:  truetype.NewFace(regular, &truetype.Options{Size: 34, DPI: 72}),
		metaFace:  truetype.NewFace(regular, &truetype.Options{Size: 28, DPI: 72}),
	}, nil
}

func (r *cardRenderer) RenderPNG(p domain.Pattern) ([]byte, error) {
	if cached, ok := r.cache.Load(p.ID); ok {
		return cached.([]byte), nil
	}

	r.mu.Lock()
	buf, err := r.draw(p)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := buf.Bytes()
	r.cache.Store(p.ID, out)
	r.log.Debug("rendered card", "pattern_id", p.ID, "bytes", len(out))
	return out, nil
}

func (r *cardRenderer) draw(p domain.Pattern) (bytes.Buffer, error) {
	const margin = 80.0
	w, h := float64(CardWidth), float64(CardHeight)

	dc := gg.NewContext(CardWidth, CardHeight)
	dc.SetColor(cardBackground)
	dc.Clear()

	dc.SetColor(cardAccent)
	dc.DrawRectangle(0, 0, w, 16)
	dc.Fill()

	dc.SetFontFace(r.metaFace)
	dc.DrawString(fmt.Sprintf("PATTERN %d", p.ID), margin, margin+20)

	dc.SetColor(cardInk)
	dc.SetFontFace(r.titleFace)
	dc.DrawStringWrapped(p.Title, margin, margin+60, 0, 0, w-2*margin, 1.2, gg.AlignLeft)
	_, titleH := dc.MeasureMultilineString(strings.Join(dc.WordWrap(p.Title, w-2*margin), "\n"), 1.2)

	dc.SetFontFace(r.bodyFace)
	dc.DrawStringWrapped(firstSentence(p.Problem), margin, margin+100+titleH, 0, 0, w-2*margin, 1.4, gg.AlignLeft)

	dc.SetFontFace(r.metaFace)
	dc.SetColor(cardAccent)
	dc.DrawStringAnchored("APL Daily", w-margin, h-margin/2, 1, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}
