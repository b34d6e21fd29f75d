package browser

import (
	"testing"

	"github.com/entrhq/replay/pkg/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordingPage(t *testing.T) (*Page, *stubDriver, *recording.Session) {
	t.Helper()
	session, err := recording.NewSession("s1", t.TempDir())
	require.NoError(t, err)
	driver := newStubDriver()
	return NewPage(driver, session), driver, session
}

func TestPage_StateChangingCallsRecordWithCaptures(t *testing.T) {
	page, _, session := newRecordingPage(t)

	require.NoError(t, page.Navigate("https://example.com"))
	require.NoError(t, page.Fill("#q", "golang"))
	require.NoError(t, page.Click("#submit"))

	ops := session.Operations()
	require.Len(t, ops, 3)

	assert.Equal(t, recording.OpNavigate, ops[0].Kind)
	assert.Equal(t, "https://example.com", ops[0].Target)
	assert.Equal(t, recording.OpFill, ops[1].Kind)
	assert.Equal(t, "golang", ops[1].Value)
	assert.Equal(t, recording.OpClick, ops[2].Kind)

	for _, op := range ops {
		assert.NotEmpty(t, op.Screenshot, "state-changing op %s should capture", op.Kind)
		assert.NotEmpty(t, op.HTML)
	}
}

func TestPage_RecordsBeforeForwarding(t *testing.T) {
	page, _, session := newRecordingPage(t)

	require.NoError(t, page.Navigate("https://example.com"))

	// The operation's PageURL is the URL at record time, i.e. before the
	// navigation took effect.
	ops := session.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "about:blank", ops[0].PageURL)
}

func TestPage_ReadOnlyCallsRecordWithoutCaptures(t *testing.T) {
	page, driver, session := newRecordingPage(t)
	driver.texts["#title"] = "Results"
	driver.counts[".row"] = 4

	text, err := page.Text("#title")
	require.NoError(t, err)
	assert.Equal(t, "Results", text)

	n, err := page.Count(".row")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = page.Attribute("#link", "href")
	require.NoError(t, err)

	ops := session.Operations()
	require.Len(t, ops, 3)
	for _, op := range ops {
		assert.Equal(t, recording.OpQuery, op.Kind)
		assert.Empty(t, op.Screenshot)
		assert.Empty(t, op.HTML)
	}
}

func TestPage_CallsForwardButStopRecordingAfterStop(t *testing.T) {
	page, driver, session := newRecordingPage(t)

	require.NoError(t, page.Navigate("https://example.com"))
	session.RequestStop()

	// The call still reaches the driver, it just records nothing.
	require.NoError(t, page.Click("#after-stop"))
	assert.Contains(t, driver.Calls(), "click #after-stop")
	assert.Equal(t, 1, session.OperationCount())
}

func TestPage_OperationCountMatchesCallsBeforeFinalize(t *testing.T) {
	page, _, session := newRecordingPage(t)

	require.NoError(t, page.Navigate("https://example.com"))
	require.NoError(t, page.Fill("#q", "hello"))
	require.NoError(t, page.Click("#go"))

	info, err := session.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3, info.OperationCount)
	assert.NotEmpty(t, info.FinalScreenshot)
	assert.Equal(t, info.ScreenshotPaths[len(info.ScreenshotPaths)-1], "screenshots/step_3.png")
}

func TestPage_NilSessionIsPassThrough(t *testing.T) {
	driver := newStubDriver()
	page := NewPage(driver, nil)

	require.NoError(t, page.Navigate("https://example.com"))
	require.NoError(t, page.Click("#x"))
	assert.Len(t, driver.Calls(), 2)
}

func TestPage_RecordCustom(t *testing.T) {
	page, _, session := newRecordingPage(t)

	page.RecordCustom("checkout-complete", "order 42")

	ops := session.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, recording.OpCustom, ops[0].Kind)
	assert.Equal(t, "checkout-complete", ops[0].Target)
	assert.Equal(t, "order 42", ops[0].Value)
	assert.NotEmpty(t, ops[0].Screenshot)
}
