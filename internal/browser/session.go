// Package browser owns the single automated Chrome instance the pipeline
// drives. A session is an owned, swappable handle: the orchestrator replaces
// it wholesale on failure, there is no partial recovery of a dead browser.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Options configures a browser session.
type Options struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
	// Off-screen window position. The window stays technically open and
	// painted so IntersectionObserver-driven lazy-load keeps firing, which
	// minimized or occluded windows do not guarantee.
	OffscreenX int
	OffscreenY int
	ChromePath string

	PageLoadTimeout time.Duration
	ScriptTimeout   time.Duration
}

// Session wraps one live Chrome instance.
type Session struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	opts        Options
}

const maskWebdriverJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// New launches Chrome with anti-detection and background-throttling flags
// and returns a live session. The webdriver automation flag is masked on
// every new document.
func New(opts Options) (*Session, error) {
	if opts.PageLoadTimeout == 0 {
		opts.PageLoadTimeout = 60 * time.Second
	}
	if opts.ScriptTimeout == 0 {
		opts.ScriptTimeout = 60 * time.Second
	}
	if opts.WindowWidth == 0 {
		opts.WindowWidth = 1920
	}
	if opts.WindowHeight == 0 {
		opts.WindowHeight = 1080
	}

	chromePath := opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Keep Chrome fully active even when off-screen / not focused.
		// Without these Chrome throttles timers and pauses rendering for
		// backgrounded windows, which starves the lazy-load observers.
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-features", "TranslateUI,OptimizationHints,MediaRouter,DialMediaRouteProvider"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight)),
		chromedp.Flag("window-position", fmt.Sprintf("%d,%d", opts.OffscreenX, opts.OffscreenY)),
		chromedp.Flag("force-device-scale-factor", "1"),
	}

	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts,
			chromedp.Flag("headless", "new"),
			chromedp.Flag("disable-gpu", true),
		)
	} else {
		// Off-screen but NOT headless: GPU compositing stays on so the
		// intersection observers see a real painted viewport.
		allocOpts = append(allocOpts,
			chromedp.Flag("use-gl", "angle"),
			chromedp.Flag("use-angle", "swiftshader"),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
	}

	// Warm up and install the webdriver mask for every future document.
	err := s.Run(opts.PageLoadTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info().
		Bool("headless", opts.Headless).
		Int("offscreen_x", opts.OffscreenX).
		Str("chrome", chromePath).
		Msg("Browser session started")

	return s, nil
}

// Run executes chromedp actions against the session with a timeout.
// A zero timeout uses the configured script timeout.
func (s *Session) Run(timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = s.opts.ScriptTimeout
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Eval evaluates a JavaScript expression, optionally unmarshalling the result
// into res. All DOM reads in the pipeline go through script evaluation rather
// than visibility-dependent accessors so they work off-screen.
func (s *Session) Eval(js string, res any) error {
	return s.Run(s.opts.ScriptTimeout, chromedp.Evaluate(js, res))
}

// Navigate loads a URL with the page-load timeout.
func (s *Session) Navigate(url string) error {
	return s.Run(s.opts.PageLoadTimeout, chromedp.Navigate(url))
}

// IsAlive probes the session with a trivial read. Any failure, including a
// crashed or disconnected browser, reports the session dead.
func (s *Session) IsAlive() bool {
	if s == nil || s.ctx == nil {
		return false
	}
	var title string
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Title(&title)) == nil
}

// Close tears the browser down. A dead session is fully discarded,
// never reused.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
