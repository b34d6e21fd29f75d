package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/recording"
)

// fakeDriver satisfies browser.Driver with canned responses so executor
// tests run without a real browser.
type fakeDriver struct {
	url    string
	texts  map[string]string
	closed bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		url:   "about:blank",
		texts: map[string]string{},
	}
}

func (d *fakeDriver) Navigate(url string) error {
	d.url = url
	return nil
}

func (d *fakeDriver) Fill(selector, value string) error { return nil }
func (d *fakeDriver) Click(selector string) error       { return nil }

func (d *fakeDriver) Count(selector string) (int, error) { return 0, nil }

func (d *fakeDriver) Text(selector string) (string, error) {
	return d.texts[selector], nil
}

func (d *fakeDriver) Attribute(selector, name string) (string, error) { return "", nil }

func (d *fakeDriver) Content() (string, error) {
	return "<html><body>fake</body></html>", nil
}

func (d *fakeDriver) Screenshot() ([]byte, error) {
	return []byte("png"), nil
}

func (d *fakeDriver) URL() string { return d.url }

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

type fakeEngine struct {
	drivers []*fakeDriver
}

func (e *fakeEngine) Start() error { return nil }

func (e *fakeEngine) Launch(opts browser.LaunchOptions) (browser.Driver, error) {
	driver := newFakeDriver()
	e.drivers = append(e.drivers, driver)
	return driver, nil
}

func (e *fakeEngine) Stop() error { return nil }

func newTestExecutor(t *testing.T) (*Executor, *recording.Registry, *fakeEngine) {
	t.Helper()
	registry := recording.NewRegistry()
	engine := &fakeEngine{}
	provider := browser.NewProviderWithEngine(registry, engine)
	return New(provider, registry), registry, engine
}

func TestRunReturnsCandidateValue(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
func Run(params map[string]any) (any, error) {
	return params["greeting"], nil
}
`
	res := exec.Run(context.Background(), code, map[string]any{"greeting": "hello"}, Options{})

	require.Nil(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.Value)
	assert.Nil(t, res.Recording)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunAllowsWhitelistedImports(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
import (
	"fmt"
	"strings"
)

func Run(params map[string]any) (any, error) {
	return fmt.Sprintf("%s!", strings.ToUpper(params["word"].(string))), nil
}
`
	res := exec.Run(context.Background(), code, map[string]any{"word": "go"}, Options{})

	require.Nil(t, res.Err)
	assert.Equal(t, "GO!", res.Value)
}

func TestRunRecordsBrowserSession(t *testing.T) {
	exec, _, engine := newTestExecutor(t)
	outputDir := t.TempDir()

	code := `
import "replay/harness"

func Run(params map[string]any) (any, error) {
	instance, err := harness.GetInstance(harness.Options{
		Recording:   true,
		SessionName: "checkout",
	})
	if err != nil {
		return nil, err
	}
	defer instance.Close()

	page := instance.Page
	if err := page.Navigate(params["url"].(string)); err != nil {
		return nil, err
	}
	if err := page.Fill("#email", "user@example.com"); err != nil {
		return nil, err
	}
	if err := page.Click("#submit"); err != nil {
		return nil, err
	}

	info, err := harness.FinalizeRecording("checkout")
	if err != nil {
		return nil, err
	}
	return info.OperationCount, nil
}
`
	res := exec.Run(context.Background(), code, map[string]any{"url": "https://shop.test/cart"}, Options{OutputDir: outputDir})

	require.Nil(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Value)

	require.NotNil(t, res.Recording)
	assert.Equal(t, "checkout", res.Recording.SessionName)
	assert.Equal(t, 3, res.Recording.OperationCount)
	assert.Equal(t, filepath.Join(outputDir, "checkout"), res.Recording.BundlePath)

	require.Len(t, engine.drivers, 1)
	assert.True(t, engine.drivers[0].closed)
}

func TestRunFinalizesAbandonedSession(t *testing.T) {
	exec, registry, engine := newTestExecutor(t)

	code := `
import "replay/harness"

func Run(params map[string]any) (any, error) {
	instance, err := harness.GetInstance(harness.Options{Recording: true, SessionName: "orphan"})
	if err != nil {
		return nil, err
	}
	if err := instance.Page.Navigate("https://example.test"); err != nil {
		return nil, err
	}
	return "done", nil
}
`
	res := exec.Run(context.Background(), code, nil, Options{OutputDir: t.TempDir()})

	require.Nil(t, res.Err)
	require.NotNil(t, res.Recording)
	assert.Equal(t, "orphan", res.Recording.SessionName)
	assert.Equal(t, 1, res.Recording.OperationCount)

	// The session name is free again and the instance was released.
	_, err := registry.Lookup("orphan")
	assert.Error(t, err)
	require.Len(t, engine.drivers, 1)
	assert.True(t, engine.drivers[0].closed)
}

func TestRunDefaultsSessionName(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
import "replay/harness"

func Run(params map[string]any) (any, error) {
	instance, err := harness.GetInstance(harness.Options{Recording: true})
	if err != nil {
		return nil, err
	}
	defer instance.Close()
	return instance.Page.Navigate("https://example.test"), nil
}
`
	res := exec.Run(context.Background(), code, nil, Options{SessionName: "attempt-1", OutputDir: t.TempDir()})

	require.Nil(t, res.Err)
	require.NotNil(t, res.Recording)
	assert.Equal(t, "attempt-1", res.Recording.SessionName)
}

func TestRunReportsRuntimeError(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
import "errors"

func Run(params map[string]any) (any, error) {
	return nil, errors.New("element not found")
}
`
	res := exec.Run(context.Background(), code, nil, Options{})

	require.NotNil(t, res.Err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindRuntime, res.Err.Kind)
	assert.Contains(t, res.Err.Error(), "element not found")
}

func TestRunRecoversCandidatePanic(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
func Run(params map[string]any) (any, error) {
	return params["missing"].(string), nil
}
`
	res := exec.Run(context.Background(), code, nil, Options{})

	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorKindRuntime, res.Err.Kind)
}

func TestRunTimeoutKeepsRecording(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
import (
	"time"

	"replay/harness"
)

func Run(params map[string]any) (any, error) {
	instance, err := harness.GetInstance(harness.Options{Recording: true, SessionName: "slow"})
	if err != nil {
		return nil, err
	}
	if err := instance.Page.Navigate("https://slow.test"); err != nil {
		return nil, err
	}
	time.Sleep(5 * time.Second)
	return "never", nil
}
`
	res := exec.Run(context.Background(), code, nil, Options{
		OutputDir: t.TempDir(),
		Timeout:   100 * time.Millisecond,
	})

	require.NotNil(t, res.Err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindTimeout, res.Err.Kind)
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))

	require.NotNil(t, res.Recording)
	assert.Equal(t, "slow", res.Recording.SessionName)
	assert.Equal(t, 1, res.Recording.OperationCount)
}

func TestRunRejectsForbiddenImports(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	code := `
import (
	"os"
	"os/exec"
)

func Run(params map[string]any) (any, error) {
	return exec.Command("rm").Run(), os.Remove("/")
}
`
	res := exec.Run(context.Background(), code, nil, Options{})

	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorKindLoad, res.Err.Kind)
	assert.Contains(t, res.Err.Error(), "os/exec")
}

func TestRunRequiresEntryPoint(t *testing.T) {
	exec, _, _ := newTestExecutor(t)

	for name, code := range map[string]string{
		"missing": `
func Main(params map[string]any) (any, error) { return nil, nil }
`,
		"wrong signature": `
func Run(input string) (string, error) { return input, nil }
`,
	} {
		t.Run(name, func(t *testing.T) {
			res := exec.Run(context.Background(), code, nil, Options{})
			require.NotNil(t, res.Err)
			assert.Equal(t, ErrorKindLoad, res.Err.Kind)
		})
	}
}

func TestValidateImports(t *testing.T) {
	assert.NoError(t, validateImports(`import "strings"`))
	assert.NoError(t, validateImports("import (\n\t\"fmt\"\n\t\"replay/harness\"\n)"))
	assert.NoError(t, validateImports(`import h "replay/harness"`))

	err := validateImports(`import "net/http"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "net/http")
}

func TestWrapCode(t *testing.T) {
	assert.Equal(t, "package main\n\nfunc Run() {}", wrapCode("func Run() {}"))

	already := "package main\n\nfunc Run() {}"
	assert.Equal(t, already, wrapCode(already))
}

func TestSandboxSymbolsExcludeBlockedPackages(t *testing.T) {
	symbols := sandboxSymbols()

	assert.Contains(t, symbols, "fmt/fmt")
	assert.Contains(t, symbols, "encoding/json/json")
	assert.NotContains(t, symbols, "os/os")
	assert.NotContains(t, symbols, "net/http/http")
	assert.NotContains(t, symbols, "os/exec/exec")
}

func ExampleExecutor_Run() {
	registry := recording.NewRegistry()
	provider := browser.NewProviderWithEngine(registry, &fakeEngine{})
	exec := New(provider, registry)

	code := `
func Run(params map[string]any) (any, error) {
	return len(params), nil
}
`
	res := exec.Run(context.Background(), code, map[string]any{"a": 1, "b": 2}, Options{})
	fmt.Println(res.Success, res.Value)
	// Output: true 2
}
