package crawler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"landseek/config"
)

// Session is one exclusively owned, ready-to-drive browser page. Sessions
// are never shared between crawl invocations.
type Session interface {
	Page() playwright.Page
	Close()
}

// SessionFactory produces authenticated, stealth-configured sessions.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// Injected before any page script runs; hides the common automation
// fingerprints the site checks for.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});

	window.chrome = {
		runtime: {},
		loadTimes: function() {},
		csi: function() {},
	};

	Object.defineProperty(navigator, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});

	Object.defineProperty(navigator, 'languages', {
		get: () => ['ko-KR', 'ko', 'en-US', 'en'],
	});

	const originalQuery = window.navigator.permissions.query;
	window.navigator.permissions.query = (parameters) => (
		parameters.name === 'notifications' ?
			Promise.resolve({ state: Notification.permission }) :
			originalQuery(parameters)
	);
`

// Firefox preferences that suppress the webdriver flag, WebRTC leaks and
// fingerprinting surfaces. Verified against the target site in headless mode.
func firefoxPrefs(userAgent string) map[string]interface{} {
	return map[string]interface{}{
		"dom.webdriver.enabled":                false,
		"useAutomationExtension":               false,
		"media.peerconnection.enabled":         false,
		"webgl.disabled":                       true,
		"media.webrtc.hw.h264.enabled":         false,
		"general.useragent.override":           userAgent,
		"devtools.console.stdout.chrome":       false,
		"devtools.debugger.remote-enabled":     false,
		"plugins.testmode":                     false,
		"network.http.pipelining":              true,
		"network.http.proxy.pipelining":        true,
		"network.http.pipelining.maxrequests":  8,
		"privacy.resistFingerprinting":         true,
		"privacy.trackingprotection.enabled":   true,
		"browser.cache.disk.enable":            false,
		"browser.cache.memory.enable":          true,
		"places.history.enabled":               false,
	}
}

type browserSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (s *browserSession) Page() playwright.Page { return s.page }

// Close releases everything in reverse order of acquisition. Teardown
// failures are logged, never surfaced; a half-dead browser must not mask
// the result of the crawl that used it.
func (s *browserSession) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			log.Printf("[session] page close: %v", err)
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			log.Printf("[session] context close: %v", err)
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("[session] browser close: %v", err)
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			log.Printf("[session] playwright stop: %v", err)
		}
		s.pw = nil
	}
}

// PlaywrightSessions launches headless Firefox sessions against the
// configured entry URL.
type PlaywrightSessions struct {
	cfg *config.CrawlerConfig
}

func NewPlaywrightSessions(cfg *config.CrawlerConfig) *PlaywrightSessions {
	return &PlaywrightSessions{cfg: cfg}
}

// Open retries the full launch+navigate sequence with linearly increasing
// backoff. A landing URL ending in 404 counts as a retryable failure; the
// site sometimes bounces fresh sessions through a transient redirect.
func (f *PlaywrightSessions) Open(ctx context.Context) (Session, error) {
	attempts := f.cfg.MaxLaunchAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := f.cfg.LaunchRetryDelay + time.Duration(attempt)*time.Second
			log.Printf("[session] retrying launch in %s (attempt %d/%d)", delay, attempt+1, attempts)
			select {
			case <-ctx.Done():
				return nil, &SessionInitError{Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		sess, err := f.open(ctx)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		log.Printf("[session] launch attempt %d/%d failed: %v", attempt+1, attempts, err)
	}
	return nil, &SessionInitError{Attempts: attempts, Err: lastErr}
}

func (f *PlaywrightSessions) open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess := &browserSession{}
	ok := false
	defer func() {
		if !ok {
			sess.Close()
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	sess.pw = pw

	browser, err := pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless:         playwright.Bool(f.cfg.Headless),
		FirefoxUserPrefs: firefoxPrefs(f.cfg.UserAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("launch firefox: %w", err)
	}
	sess.browser = browser

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(f.cfg.UserAgent),
		Viewport:   &playwright.Size{Width: 1920, Height: 1080},
		Locale:     playwright.String("ko-KR"),
		TimezoneId: playwright.String("Asia/Seoul"),
		ExtraHttpHeaders: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Encoding":           "gzip, deflate, br",
			"Accept-Language":           "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Cache-Control":             "max-age=0",
		},
		Permissions:       []string{"geolocation"},
		Geolocation:       &playwright.Geolocation{Latitude: 37.5665, Longitude: 126.9780},
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}
	sess.context = browserCtx

	if err := browserCtx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		return nil, fmt.Errorf("add init script: %w", err)
	}

	if len(f.cfg.Cookies) > 0 {
		cookies := make([]playwright.OptionalCookie, 0, len(f.cfg.Cookies))
		for _, c := range f.cfg.Cookies {
			cookies = append(cookies, playwright.OptionalCookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: playwright.String(f.cfg.CookieDomain),
				Path:   playwright.String("/"),
			})
		}
		if err := browserCtx.AddCookies(cookies); err != nil {
			return nil, fmt.Errorf("add cookies: %w", err)
		}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	sess.page = page
	page.SetDefaultNavigationTimeout(60000)
	page.SetDefaultTimeout(30000)

	log.Printf("[session] navigating to entry URL: %s", f.cfg.EntryURL)
	if _, err := page.Goto(f.cfg.EntryURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return nil, fmt.Errorf("navigate entry URL: %w", err)
	}

	if strings.HasSuffix(page.URL(), "404") {
		return nil, fmt.Errorf("entry navigation landed on %s", page.URL())
	}

	page.WaitForTimeout(2000)
	ok = true
	return sess, nil
}
