package extractor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"camwatch/config"
	"camwatch/models"
)

// BrowserHandler drives the portal with a headless browser. The portal
// renders the device table client-side behind a login form, so plain
// HTTP fetches come back empty; we let the page settle and scrape the
// rendered markup.
type BrowserHandler struct {
	cfg *config.PortalConfig

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	initialized bool
}

func NewBrowserHandler(cfg *config.PortalConfig) *BrowserHandler {
	return &BrowserHandler{cfg: cfg}
}

func (h *BrowserHandler) ID() string {
	return "browser"
}

func (h *BrowserHandler) Extract(ctx context.Context) (*models.Extraction, error) {
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}
	defer h.Close()

	page, err := h.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	if err := h.login(page); err != nil {
		return nil, fmt.Errorf("portal login: %w", err)
	}

	statusURL := h.cfg.BaseURL + h.cfg.Endpoints["status"]
	if _, err := page.Goto(statusURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(h.cfg.Timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("open status page: %w", err)
	}

	// Table rows are filled in by the portal's own polling script;
	// wait for at least one device row before scraping.
	rowSelector := h.cfg.Selectors.Table + " " + h.cfg.Selectors.Row
	if _, err := page.WaitForSelector(rowSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(30_000),
	}); err != nil {
		return nil, fmt.Errorf("device table never rendered: %w", err)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}

	extraction, err := parseStatusTable([]byte(content), h.cfg.Selectors)
	if err != nil {
		return nil, err
	}

	log.Printf("Browser extraction: %d readings from %s", len(extraction.Readings), statusURL)
	return extraction, nil
}

func (h *BrowserHandler) login(page playwright.Page) error {
	loginURL := h.cfg.BaseURL + h.cfg.Endpoints["login"]
	if _, err := page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if err := page.Fill("input[name=username]", h.cfg.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := page.Fill("input[name=password]", h.cfg.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := page.Click("button[type=submit]"); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("wait for login: %w", err)
	}

	time.Sleep(500 * time.Millisecond)
	return nil
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}

	context, err := browser.NewContext()
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("new browser context: %w", err)
	}

	h.pw = pw
	h.browser = browser
	h.context = context
	h.initialized = true
	return nil
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return
	}
	if h.context != nil {
		h.context.Close()
	}
	if h.browser != nil {
		h.browser.Close()
	}
	if h.pw != nil {
		h.pw.Stop()
	}
	h.initialized = false
}
