package recording

import "time"

// OperationKind identifies the category of a recorded automation call.
type OperationKind string

const (
	// OpNavigate is a page navigation to a URL.
	OpNavigate OperationKind = "navigate"

	// OpFill is a form input fill.
	OpFill OperationKind = "fill"

	// OpClick is an element click.
	OpClick OperationKind = "click"

	// OpQuery is a read-only element query (selector match, text or
	// attribute extraction). Query operations record no page captures.
	OpQuery OperationKind = "query"

	// OpCustom is a caller-defined marker recorded through
	// Page.RecordCustom, mirroring manual annotations in a session.
	OpCustom OperationKind = "custom"
)

// Status represents the lifecycle state of a recording session.
type Status string

const (
	// StatusActive means the session accepts operation appends.
	StatusActive Status = "active"

	// StatusStopping means a stop has been requested; in-flight records
	// complete but no new call may append.
	StatusStopping Status = "stopping"

	// StatusStopped means the session has been flushed to its bundle and
	// is immutable.
	StatusStopped Status = "stopped"
)

// Operation is a single recorded automation call. Operations are immutable
// once appended to a session.
type Operation struct {
	// Step is the 1-based position of the operation within the session.
	Step int `json:"step"`

	// Kind categorizes the call.
	Kind OperationKind `json:"kind"`

	// Target is the selector or URL the call acted on.
	Target string `json:"target"`

	// Value carries fill text or other call input, when present.
	Value string `json:"value,omitempty"`

	// Timestamp is when the operation was appended.
	Timestamp time.Time `json:"timestamp"`

	// PageURL is the page URL at the time the call was issued.
	PageURL string `json:"page_url,omitempty"`

	// Screenshot is the bundle-relative path of the capture taken for
	// this operation, empty for read-only calls or failed captures.
	Screenshot string `json:"screenshot,omitempty"`

	// HTML is the bundle-relative path of the HTML snapshot taken for
	// this operation, empty for read-only calls or failed captures.
	HTML string `json:"html,omitempty"`
}

// Info is the immutable summary of a finalized (Stopped) session. Repeated
// finalize calls on the same session return the identical Info.
type Info struct {
	// SessionName is the unique name the session was registered under.
	SessionName string `json:"session_name"`

	// OperationCount is the number of operations recorded before the
	// stop flag was observed.
	OperationCount int `json:"operation_count"`

	// ScreenshotPaths lists captured screenshots in capture order,
	// resolved against the bundle directory.
	ScreenshotPaths []string `json:"screenshot_paths"`

	// HTMLPaths lists HTML snapshots in capture order, resolved against
	// the bundle directory.
	HTMLPaths []string `json:"html_paths"`

	// FinalScreenshot is the last captured screenshot, empty if the
	// session captured none.
	FinalScreenshot string `json:"final_screenshot,omitempty"`

	// BundlePath is the directory holding the persisted bundle.
	BundlePath string `json:"bundle_path"`
}
