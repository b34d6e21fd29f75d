package browser

// Driver is the abstract automation capability a page handle is built on:
// navigation, input fill, click, element queries, and text/attribute reads,
// plus the raw captures the recording interceptor needs. The production
// implementation drives Playwright; tests substitute stub drivers.
type Driver interface {
	// Navigate loads the given URL and waits for the page to be ready.
	Navigate(url string) error

	// Fill sets the value of the input matching selector.
	Fill(selector, value string) error

	// Click clicks the element matching selector.
	Click(selector string) error

	// Count returns the number of elements matching selector.
	Count(selector string) (int, error)

	// Text returns the text content of the first element matching
	// selector.
	Text(selector string) (string, error)

	// Attribute returns the named attribute of the first element matching
	// selector, empty if the attribute is absent.
	Attribute(selector, name string) (string, error)

	// Content returns the full page HTML.
	Content() (string, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// URL returns the current page URL.
	URL() string

	// Close releases the browser resources behind this driver.
	Close() error
}

// Engine launches drivers. Start must be called before the first Launch;
// Stop releases the engine itself once all drivers are closed.
type Engine interface {
	Start() error
	Launch(opts LaunchOptions) (Driver, error)
	Stop() error
}

// LaunchOptions configure a single driver launch. They pass through to the
// underlying engine unchanged and do not affect recording semantics.
type LaunchOptions struct {
	Headless bool
	Viewport Viewport
	// Timeout is the default per-call timeout in milliseconds.
	Timeout float64
}
