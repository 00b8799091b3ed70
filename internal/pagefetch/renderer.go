// Package pagefetch renders a job posting in headless Chromium and returns
// its HTML, for pages whose content only exists after scripts run.
package pagefetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"eliteapply/internal/config"
)

// ErrForbiddenURL is returned for non-http(s) URLs and internal hosts.
var ErrForbiddenURL = errors.New("url is not allowed")

// Renderer launches a fresh browser per call.
type Renderer struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger
}

func NewRenderer(cfg config.BrowserConfig, logger *slog.Logger) *Renderer {
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{bin: cfg.Bin, timeout: timeout, logger: logger}
}

// Render navigates to rawURL and returns the DOM after load settles.
func (r *Renderer) Render(ctx context.Context, rawURL string) (_ string, err error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log := r.logger.With(slog.String("url", target.String()))
	log.Info("rendering job page")

	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	bin := r.bin
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	if bin != "" {
		launch = launch.Bin(bin)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return "", fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: target.String()})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	// 招聘站点多为前端渲染，等 DOM 稳定后再取快照。
	if err := page.WaitDOMStable(time.Second, 0); err != nil {
		log.Warn("dom did not settle, using current snapshot", slog.Any("error", err))
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// ValidateURL accepts absolute http(s) URLs that do not point at loopback,
// private or link-local addresses.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbiddenURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrForbiddenURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrForbiddenURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return nil, fmt.Errorf("%w: host %q", ErrForbiddenURL, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return nil, fmt.Errorf("%w: address %s", ErrForbiddenURL, ip)
		}
	}
	return u, nil
}
