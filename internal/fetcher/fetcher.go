package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"mangascraper/internal/browser"
)

// DefaultUserAgent is the desktop browser identity presented to sites.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// stealthJS runs before any page script. It hides the automation flag and
// pins canvas fingerprinting output to a constant.
const stealthJS = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	HTMLCanvasElement.prototype.toDataURL = function () {
		return 'data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==';
	};
})();`

// Options controls how a tab is prepared and navigated.
type Options struct {
	UserAgent         string
	Width             int
	Height            int
	NavigationTimeout time.Duration
	// IdleWindow is how long the network must stay quiet before the page
	// counts as settled.
	IdleWindow time.Duration
}

// DefaultOptions returns the standard tab setup.
func DefaultOptions() Options {
	return Options{
		UserAgent:         DefaultUserAgent,
		Width:             1080,
		Height:            640,
		NavigationTimeout: 2 * time.Minute,
		IdleWindow:        500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.IdleWindow <= 0 {
		o.IdleWindow = d.IdleWindow
	}
	return o
}

// Tab is the part of a browser tab that page preparation drives. *rod.Page
// satisfies it.
type Tab interface {
	SetUserAgent(req *proto.NetworkSetUserAgentOverride) error
	SetViewport(params *proto.EmulationSetDeviceMetricsOverride) error
	EvalOnNewDocument(js string) (func() error, error)
	WaitRequestIdle(d time.Duration, includes, excludes []string, excludeTypes []proto.NetworkResourceType) func()
	Navigate(url string) error
	WaitLoad() error
}

var _ Tab = (*rod.Page)(nil)

// OpenPage opens a tab on b, prepares it and loads url, all under the
// navigation timeout. The returned page keeps ctx but not the timeout.
func OpenPage(ctx context.Context, b *browser.Browser, url string, opts Options) (*rod.Page, error) {
	opts = opts.withDefaults()

	page, err := b.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page = page.Context(ctx)

	timed := page.Timeout(opts.NavigationTimeout)
	defer timed.CancelTimeout()

	err = Load(timed, url, opts)
	if err == nil {
		if cerr := timed.GetContext().Err(); cerr != nil {
			err = fmt.Errorf("navigation to %s timed out: %w", url, cerr)
		}
	}
	if err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

// Load prepares t and navigates it to url. The stealth script is always
// registered before the first navigation.
func Load(t Tab, url string, opts Options) error {
	if err := InitPage(t, opts); err != nil {
		return err
	}
	return Navigate(t, url, opts)
}

// InitPage applies the identity, viewport and stealth script to t.
func InitPage(t Tab, opts Options) error {
	opts = opts.withDefaults()

	if err := t.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := t.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if _, err := t.EvalOnNewDocument(stealthJS); err != nil {
		return fmt.Errorf("failed to install stealth script: %w", err)
	}
	return nil
}

// Navigate loads url and waits until the document has loaded and network
// activity has settled.
func Navigate(t Tab, url string, opts Options) error {
	opts = opts.withDefaults()

	wait := t.WaitRequestIdle(opts.IdleWindow, nil, nil, nil)
	if err := t.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := t.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	wait()
	return nil
}
