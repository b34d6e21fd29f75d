// Package harness is the API surface exposed to generated automation
// functions. Candidate code runs inside an interpreter sandbox and sees
// this package as "replay/harness"; the executor binds GetInstance and
// FinalizeRecording to the provider and registry of the current run.
//
// A candidate is a standalone main package with a single entry point:
//
//	func Run(params map[string]any) (any, error)
//
// Code that needs a browser calls harness.GetInstance, drives the returned
// Page, and calls harness.FinalizeRecording(name) before returning. The
// executor finalizes any session the candidate leaves open.
package harness

import (
	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/recording"
)

// Options configures a browser instance request from candidate code.
type Options struct {
	// Recording enables operation capture for the instance. When set,
	// SessionName must be non-empty and unique within the run.
	Recording bool

	// SessionName names the recording session the instance writes to.
	SessionName string

	// Headless runs the browser without a visible window. Defaults to true.
	Headless *bool

	// Viewport sets the page dimensions. Nil uses the provider default.
	Viewport *browser.Viewport

	// Timeout is the default action timeout in milliseconds. Zero uses
	// the provider default.
	Timeout float64
}

// Viewport is the page dimension pair accepted by Options.
type Viewport = browser.Viewport

// Instance is a live browser handle returned by GetInstance.
type Instance = browser.Instance

// Page is the automation surface of an Instance.
type Page = browser.Page

// Info summarizes a finalized recording session.
type Info = recording.Info
