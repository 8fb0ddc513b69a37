package source

import (
	"bytes"
	"context"
	"image/jpeg"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"
)

// PatternConfig holds the synthetic source settings
type PatternConfig struct {
	Width   int
	Height  int
	FPS     int
	Quality int // JPEG encode quality (1-100)
}

// DefaultPatternConfig returns the default test pattern settings
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Width:   640,
		Height:  480,
		FPS:     15,
		Quality: 80,
	}
}

// Pattern produces a moving synthetic test pattern at a fixed cadence. It is
// the default source so the server streams out of the box without a camera.
type Pattern struct {
	config    PatternConfig
	publisher Publisher
	events    chan<- any
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	frames    uint64
}

// NewPattern creates a new test pattern source
func NewPattern(config PatternConfig, publisher Publisher, events chan<- any) *Pattern {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pattern{
		config:    config,
		publisher: publisher,
		events:    events,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the capture loop
func (p *Pattern) Start() error {
	slog.Info("Starting pattern source",
		"width", p.config.Width,
		"height", p.config.Height,
		"fps", p.config.FPS,
		"quality", p.config.Quality)

	p.wg.Add(1)
	go p.captureLoop()

	emit(p.events, SourceStartedEvent{Source: p.Name()})
	return nil
}

// Stop stops the capture loop and waits for it to finish
func (p *Pattern) Stop() {
	p.cancel()
	p.wg.Wait()
	emit(p.events, SourceStoppedEvent{Source: p.Name(), Reason: "stopped"})
	slog.Info("Pattern source stopped", "framesProduced", p.frames)
}

// Name 소스 이름 반환 (Source 인터페이스 구현)
func (p *Pattern) Name() string {
	return "pattern"
}

// captureLoop renders and publishes one frame per tick
func (p *Pattern) captureLoop() {
	defer p.wg.Done()

	interval := time.Second / time.Duration(p.config.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			data, err := p.renderFrame(p.frames)
			if err != nil {
				// 인코딩 실패 시 해당 프레임은 발행하지 않고 건너뜀
				slog.Warn("Pattern frame encode failed, skipping", "err", err)
				emit(p.events, SourceErrorEvent{Source: p.Name(), Err: err})
				continue
			}
			p.publisher.Publish(data)
			p.frames++
		case <-p.ctx.Done():
			return
		}
	}
}

// renderFrame draws the test pattern and encodes it as JPEG
func (p *Pattern) renderFrame(n uint64) ([]byte, error) {
	w := float64(p.config.Width)
	h := float64(p.config.Height)
	dc := gg.NewContext(p.config.Width, p.config.Height)

	// 배경
	dc.SetRGB(0.08, 0.08, 0.12)
	dc.Clear()

	// 수평으로 순환 이동하는 컬러 바
	phase := float64(n%120) / 120.0
	barWidth := w / 8
	for i := 0; i < 8; i++ {
		x := math.Mod(float64(i)*barWidth+phase*w, w)
		dc.SetRGB(float64(i)/8.0, 1.0-float64(i)/8.0, 0.5)
		dc.DrawRectangle(x, 0, barWidth, h/3)
		dc.Fill()
	}

	// 중앙에서 맥동하는 원
	radius := h/6 + h/12*math.Sin(2*math.Pi*phase)
	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawCircle(w/2, h/2, radius)
	dc.Fill()

	// 프레임 카운터를 나타내는 하단 진행 바
	progress := float64(n%uint64(p.config.FPS)) / float64(p.config.FPS)
	dc.SetRGB(0.2, 0.8, 0.3)
	dc.DrawRectangle(0, h-20, w*progress, 20)
	dc.Fill()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: p.config.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
