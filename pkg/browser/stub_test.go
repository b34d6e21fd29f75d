package browser

import (
	"fmt"
	"sync"
)

// stubDriver is an in-memory Driver for tests. Calls are appended to a
// shared journal so assertions can check ordering across calls.
type stubDriver struct {
	mu      sync.Mutex
	calls   []string
	url     string
	html    string
	texts   map[string]string
	counts  map[string]int
	failing map[string]error
	closed  bool
}

func newStubDriver() *stubDriver {
	return &stubDriver{
		url:     "about:blank",
		html:    "<html><body></body></html>",
		texts:   make(map[string]string),
		counts:  make(map[string]int),
		failing: make(map[string]error),
	}
}

func (d *stubDriver) log(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *stubDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *stubDriver) Navigate(url string) error {
	if err := d.failing["navigate"]; err != nil {
		return err
	}
	d.log("navigate %s", url)
	d.mu.Lock()
	d.url = url
	d.mu.Unlock()
	return nil
}

func (d *stubDriver) Fill(selector, value string) error {
	if err := d.failing["fill"]; err != nil {
		return err
	}
	d.log("fill %s=%s", selector, value)
	return nil
}

func (d *stubDriver) Click(selector string) error {
	if err := d.failing["click"]; err != nil {
		return err
	}
	d.log("click %s", selector)
	return nil
}

func (d *stubDriver) Count(selector string) (int, error) {
	d.log("count %s", selector)
	return d.counts[selector], nil
}

func (d *stubDriver) Text(selector string) (string, error) {
	d.log("text %s", selector)
	text, ok := d.texts[selector]
	if !ok {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	return text, nil
}

func (d *stubDriver) Attribute(selector, name string) (string, error) {
	d.log("attribute %s %s", selector, name)
	return d.texts[selector+"@"+name], nil
}

func (d *stubDriver) Content() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.html, nil
}

func (d *stubDriver) Screenshot() ([]byte, error) {
	return []byte("png:" + d.URL()), nil
}

func (d *stubDriver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *stubDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *stubDriver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// stubEngine hands out stubDrivers and tracks lifecycle calls.
type stubEngine struct {
	mu        sync.Mutex
	started   bool
	stopped   bool
	launched  []*stubDriver
	startErr  error
	launchErr error
}

func newStubEngine() *stubEngine {
	return &stubEngine{}
}

func (e *stubEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startErr != nil {
		return e.startErr
	}
	e.started = true
	return nil
}

func (e *stubEngine) Launch(opts LaunchOptions) (Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	d := newStubDriver()
	e.launched = append(e.launched, d)
	return d, nil
}

func (e *stubEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}
