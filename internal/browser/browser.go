package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser wraps a rod.Browser together with the launcher that started it,
// if any. Remote sessions have no launcher. The connection is bound to the
// context it was acquired with.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	strategy Strategy

	closeOnce sync.Once
	closeErr  error
}

// Strategy returns the acquisition strategy that produced the browser.
func (b *Browser) Strategy() Strategy {
	return b.strategy
}

// NewPage opens a blank tab.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close tears the browser down. Only the first call does any work; later
// calls return the first result.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.browser != nil {
			b.closeErr = b.browser.Close()
		}
		if b.launcher != nil {
			b.launcher.Kill()
			b.launcher.Cleanup()
		}
	})
	return b.closeErr
}

func launch(ctx context.Context, l *launcher.Launcher, s Strategy) (*Browser, error) {
	u, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	rb := rod.New().Context(ctx).ControlURL(u)
	if err := rb.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to launched browser: %w", err)
	}

	return &Browser{browser: rb, launcher: l, strategy: s}, nil
}

func connect(ctx context.Context, endpoint string, s Strategy) (*Browser, error) {
	rb := rod.New().Context(ctx).ControlURL(endpoint)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to remote browser: %w", err)
	}
	return &Browser{browser: rb, strategy: s}, nil
}
