package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightEngine launches Chromium drivers through Playwright. It is the
// production Engine.
type PlaywrightEngine struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// NewPlaywrightEngine creates an engine. Start installs and boots the
// Playwright runtime on first use.
func NewPlaywrightEngine() *PlaywrightEngine {
	return &PlaywrightEngine{}
}

// Start installs and runs Playwright. Output is discarded so driver
// bootstrap noise never interleaves with caller output.
func (e *PlaywrightEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	e.pw = pw
	e.initialized = true
	return nil
}

// Launch starts a browser, context, and page, rolling back partial
// acquisitions on failure.
func (e *PlaywrightEngine) Launch(opts LaunchOptions) (Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, fmt.Errorf("playwright engine not started")
	}

	browser, err := e.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(opts.Timeout)

	return &playwrightDriver{
		browser: browser,
		context: context,
		page:    page,
	}, nil
}

// Stop shuts the Playwright runtime down.
func (e *PlaywrightEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.pw == nil {
		return nil
	}

	if err := e.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	e.initialized = false
	return nil
}

// playwrightDriver adapts one browser/context/page triple to the Driver
// interface.
type playwrightDriver struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (d *playwrightDriver) Navigate(url string) error {
	if _, err := d.page.Goto(url, playwright.PageGotoOptions{}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) Fill(selector, value string) error {
	if err := d.page.Fill(selector, value, playwright.PageFillOptions{}); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) Click(selector string) error {
	if err := d.page.Click(selector, playwright.PageClickOptions{}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (d *playwrightDriver) Count(selector string) (int, error) {
	elements, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return 0, fmt.Errorf("selector query failed: %w", err)
	}
	return len(elements), nil
}

func (d *playwrightDriver) Text(selector string) (string, error) {
	element, err := d.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}

func (d *playwrightDriver) Attribute(selector, name string) (string, error) {
	element, err := d.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	value, err := element.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute read failed: %w", err)
	}
	return value, nil
}

func (d *playwrightDriver) Content() (string, error) {
	content, err := d.page.Content()
	if err != nil {
		return "", fmt.Errorf("content read failed: %w", err)
	}
	return content, nil
}

func (d *playwrightDriver) Screenshot() ([]byte, error) {
	data, err := d.page.Screenshot(playwright.PageScreenshotOptions{})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (d *playwrightDriver) URL() string {
	return d.page.URL()
}

func (d *playwrightDriver) Close() error {
	// Continue cleanup on individual close errors.
	_ = d.page.Close()
	_ = d.context.Close()
	return d.browser.Close()
}
