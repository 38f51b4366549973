// Package chromesource captures video frames through a headless Chrome
// <video> element drawn onto a <canvas>.
package chromesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/accidentscan/pkg/ports"
)

var (
	// ErrChromeNotFound is returned when no browser binary can be located.
	ErrChromeNotFound = errors.New("chromesource: chrome not found")

	// ErrBadCapture is returned when the page returns something other than a PNG data URL.
	ErrBadCapture = errors.New("chromesource: unexpected capture data")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chromesource: source closed")
)

// Options configures the browser.
type Options struct {
	ChromePath string
	Headless   bool
}

// Opener launches one browser tab per opened file.
type Opener struct {
	opts Options
}

// NewOpener creates a new Opener.
func NewOpener(opts Options) *Opener {
	return &Opener{opts: opts}
}

// Source is a ports.RasterSource backed by a Chrome tab.
type Source struct {
	server *http.Server
	url    string

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.Mutex
	loaded bool
	info   ports.VideoInfo
	closed bool
}

// allocatorOptions returns chromedp flags suited to containers and CI.
func allocatorOptions(chromePath string, headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

// Open serves path on a loopback listener and loads the capture page.
func (o *Opener) Open(path string) (ports.RasterSource, error) {
	chromePath := ResolveChromePath(o.opts.ChromePath)
	if chromePath == "" {
		return nil, fmt.Errorf("%w: install Chrome/Chromium or set %s", ErrChromeNotFound, ChromePathEnv)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	server := &http.Server{Handler: newHandler(path), ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(ln)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(chromePath, o.opts.Headless)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Source{
		server:      server,
		url:         "http://" + ln.Addr().String() + "/",
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	if err := chromedp.Run(ctx, chromedp.Navigate(s.url)); err != nil {
		s.Close()
		return nil, fmt.Errorf("load capture page: %w", err)
	}
	return s, nil
}

// run executes actions on the tab, aborting when ctx is done. Cancelling the
// derived context ends the call without closing the tab.
func (s *Source) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// Metadata waits for the video's metadata to load.
func (s *Source) Metadata(ctx context.Context) (ports.VideoInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ports.VideoInfo{}, ErrClosed
	}
	if s.loaded {
		return s.info, nil
	}

	var meta struct {
		Duration float64 `json:"duration"`
		Width    int     `json:"width"`
		Height   int     `json:"height"`
	}
	if err := s.run(ctx, chromedp.Evaluate(`window.loadVideo()`, &meta, awaitPromise)); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("load video: %w", err)
	}

	s.info = ports.VideoInfo{DurationSec: meta.Duration, Width: meta.Width, Height: meta.Height}
	s.loaded = true
	return s.info, nil
}

// SeekAndCapture seeks the video element and rasterizes the settled frame.
func (s *Source) SeekAndCapture(ctx context.Context, timestampSec float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	var dataURL string
	expr := fmt.Sprintf(`window.capture(%g)`, timestampSec)
	if err := s.run(ctx, chromedp.Evaluate(expr, &dataURL, awaitPromise)); err != nil {
		return nil, fmt.Errorf("capture at %.3fs: %w", timestampSec, err)
	}
	return decodeDataURL(dataURL)
}

// decodeDataURL decodes a base64 PNG data URL.
func decodeDataURL(dataURL string) (image.Image, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, ErrBadCapture
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCapture, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCapture, err)
	}
	return img, nil
}

// Close shuts down the tab, the browser and the file server.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

var (
	_ ports.RasterSource = (*Source)(nil)
	_ ports.SourceOpener = (*Opener)(nil)
)
