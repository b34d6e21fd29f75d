package browser

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// InstanceOptions configure one GetInstance call.
type InstanceOptions struct {
	// Recording enables the session interceptor. When false no recording
	// session is created and the returned page is a plain pass-through.
	Recording bool

	// SessionName keys the recording session in the registry. Required
	// when Recording is true.
	SessionName string

	// OutputDir is the directory the session bundle is created under.
	OutputDir string

	// Headless controls whether the browser runs without a visible
	// window.
	Headless bool

	// Viewport sets the initial viewport size. Nil selects the default.
	Viewport *Viewport

	// Timeout sets the default timeout for automation calls
	// (in milliseconds). Zero selects the default.
	Timeout float64
}

// Default values for instance launches.
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
