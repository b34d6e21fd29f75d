package browser

import "github.com/entrhq/replay/pkg/recording"

// Page is the handle candidate code drives. With a session attached, every
// automation call appends an operation record before it is forwarded to
// the driver; state-changing calls additionally capture a screenshot and
// an HTML snapshot of the page as it was when the call was issued.
//
// Once the session's stop flag is observed calls still forward, but
// nothing further is recorded.
type Page struct {
	driver  Driver
	session *recording.Session
}

// NewPage wraps a driver. A nil session produces a plain pass-through
// page with no instrumentation.
func NewPage(driver Driver, session *recording.Session) *Page {
	return &Page{driver: driver, session: session}
}

// Navigate loads url, recording the operation first.
func (p *Page) Navigate(url string) error {
	p.record(recording.OpNavigate, url, "", true)
	return p.driver.Navigate(url)
}

// Fill sets the input matching selector to value, recording the operation
// first.
func (p *Page) Fill(selector, value string) error {
	p.record(recording.OpFill, selector, value, true)
	return p.driver.Fill(selector, value)
}

// Click clicks the element matching selector, recording the operation
// first.
func (p *Page) Click(selector string) error {
	p.record(recording.OpClick, selector, "", true)
	return p.driver.Click(selector)
}

// Count returns how many elements match selector.
func (p *Page) Count(selector string) (int, error) {
	p.record(recording.OpQuery, selector, "", false)
	return p.driver.Count(selector)
}

// Text returns the text content of the first element matching selector.
func (p *Page) Text(selector string) (string, error) {
	p.record(recording.OpQuery, selector, "", false)
	return p.driver.Text(selector)
}

// Attribute returns the named attribute of the first element matching
// selector.
func (p *Page) Attribute(selector, name string) (string, error) {
	p.record(recording.OpQuery, selector, name, false)
	return p.driver.Attribute(selector, name)
}

// Content returns the current page HTML without recording.
func (p *Page) Content() (string, error) {
	return p.driver.Content()
}

// URL returns the current page URL without recording.
func (p *Page) URL() string {
	return p.driver.URL()
}

// RecordCustom appends a caller-defined marker operation with captures,
// for annotating a session beyond the intercepted call set.
func (p *Page) RecordCustom(target, value string) {
	p.record(recording.OpCustom, target, value, true)
}

// record appends one operation to the session. Captures are taken for
// state-changing calls only; capture failures degrade to an operation
// without paths rather than failing the call.
func (p *Page) record(kind recording.OperationKind, target, value string, capture bool) {
	if p.session == nil || p.session.Stopped() {
		return
	}

	op := recording.Operation{
		Kind:    kind,
		Target:  target,
		Value:   value,
		PageURL: p.driver.URL(),
	}

	var screenshot []byte
	var html string
	if capture {
		screenshot, _ = p.driver.Screenshot()
		html, _ = p.driver.Content()
	}

	_ = p.session.Record(op, screenshot, html)
}
