package fetcher

import (
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangascraper/internal/scraper"
)

var _ scraper.Launcher = (*Launcher)(nil)
var _ scraper.Session = (*Session)(nil)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Contains(t, opts.UserAgent, "Chrome/114.0.0.0")
	assert.Equal(t, 1080, opts.Width)
	assert.Equal(t, 640, opts.Height)
	assert.Equal(t, 2*time.Minute, opts.NavigationTimeout)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{NavigationTimeout: 30 * time.Second}.withDefaults()

	assert.Equal(t, 30*time.Second, opts.NavigationTimeout)
	assert.Equal(t, DefaultUserAgent, opts.UserAgent)
	assert.Equal(t, 1080, opts.Width)
	assert.Equal(t, 640, opts.Height)
	assert.Positive(t, opts.IdleWindow)
}

func TestStealthScriptIsSelfInvoking(t *testing.T) {
	assert.Contains(t, stealthJS, "navigator, 'webdriver'")
	assert.Contains(t, stealthJS, "toDataURL")
	assert.Regexp(t, `\)\(\);$`, stealthJS)
}

type recordingTab struct {
	calls    []string
	failOn   string
	ua       string
	viewport *proto.EmulationSetDeviceMetricsOverride
	script   string
	url      string
}

func (t *recordingTab) record(name string) error {
	t.calls = append(t.calls, name)
	if t.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (t *recordingTab) SetUserAgent(req *proto.NetworkSetUserAgentOverride) error {
	t.ua = req.UserAgent
	return t.record("SetUserAgent")
}

func (t *recordingTab) SetViewport(params *proto.EmulationSetDeviceMetricsOverride) error {
	t.viewport = params
	return t.record("SetViewport")
}

func (t *recordingTab) EvalOnNewDocument(js string) (func() error, error) {
	t.script = js
	return func() error { return nil }, t.record("EvalOnNewDocument")
}

func (t *recordingTab) WaitRequestIdle(time.Duration, []string, []string, []proto.NetworkResourceType) func() {
	t.calls = append(t.calls, "WaitRequestIdle")
	return func() { t.calls = append(t.calls, "idle") }
}

func (t *recordingTab) Navigate(url string) error {
	t.url = url
	return t.record("Navigate")
}

func (t *recordingTab) WaitLoad() error {
	return t.record("WaitLoad")
}

func TestLoad_StealthBeforeNavigation(t *testing.T) {
	tab := &recordingTab{}

	require.NoError(t, Load(tab, "https://weebcentral.com/hot-updates", Options{}))

	assert.Equal(t, []string{
		"SetUserAgent",
		"SetViewport",
		"EvalOnNewDocument",
		"WaitRequestIdle",
		"Navigate",
		"WaitLoad",
		"idle",
	}, tab.calls)
	assert.Equal(t, DefaultUserAgent, tab.ua)
	require.NotNil(t, tab.viewport)
	assert.Equal(t, 1080, tab.viewport.Width)
	assert.Equal(t, 640, tab.viewport.Height)
	assert.Equal(t, stealthJS, tab.script)
	assert.Equal(t, "https://weebcentral.com/hot-updates", tab.url)
}

func TestLoad_SetupFailureSkipsNavigation(t *testing.T) {
	for _, step := range []string{"SetUserAgent", "SetViewport", "EvalOnNewDocument"} {
		t.Run(step, func(t *testing.T) {
			tab := &recordingTab{failOn: step}

			err := Load(tab, "https://weebcentral.com/", Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), step+" failed")
			assert.NotContains(t, tab.calls, "Navigate")
			assert.Equal(t, step, tab.calls[len(tab.calls)-1])
		})
	}
}

func TestNavigate_FailureSkipsWaits(t *testing.T) {
	tab := &recordingTab{failOn: "Navigate"}

	err := Navigate(tab, "https://weebcentral.com/", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to navigate to https://weebcentral.com/")
	assert.Equal(t, []string{"WaitRequestIdle", "Navigate"}, tab.calls)
}
