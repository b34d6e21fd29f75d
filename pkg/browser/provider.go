package browser

import (
	"fmt"
	"sync"

	"github.com/entrhq/replay/pkg/recording"
)

// Provider hands out browser instances, optionally wired to a recording
// session. It owns the engine lifecycle and tracks open instances so a
// caller holding the provider can guarantee release on every exit path.
type Provider struct {
	mu       sync.Mutex
	engine   Engine
	registry *recording.Registry
	started  bool
	open     map[*Instance]struct{}
}

// Instance is one launched browser with its page handle. SessionName is
// set when the instance records.
type Instance struct {
	Page        *Page
	SessionName string

	driver   Driver
	provider *Provider
	once     sync.Once
}

// Close releases the browser resources behind the instance. It is safe to
// call more than once.
func (i *Instance) Close() error {
	var err error
	i.once.Do(func() {
		err = i.driver.Close()
		i.provider.forget(i)
	})
	return err
}

// NewProvider creates a provider backed by the Playwright engine.
func NewProvider(registry *recording.Registry) *Provider {
	return NewProviderWithEngine(registry, NewPlaywrightEngine())
}

// NewProviderWithEngine creates a provider on an explicit engine. Tests
// use this to substitute stub engines.
func NewProviderWithEngine(registry *recording.Registry, engine Engine) *Provider {
	return &Provider{
		engine:   engine,
		registry: registry,
		open:     make(map[*Instance]struct{}),
	}
}

// GetInstance launches a browser and returns its handle. With
// opts.Recording set, a recording session is created in the registry under
// opts.SessionName and the page intercepts every automation call; an
// existing entry under that name fails with DuplicateSessionError (names
// are exclusive, see recording.Registry.Create). Without recording the
// returned page is a plain pass-through and no session state is touched.
func (p *Provider) GetInstance(opts InstanceOptions) (*Instance, error) {
	if opts.Recording && opts.SessionName == "" {
		return nil, fmt.Errorf("session name is required when recording is enabled")
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	if err := p.start(); err != nil {
		return nil, err
	}

	driver, err := p.engine.Launch(LaunchOptions{
		Headless: opts.Headless,
		Viewport: *opts.Viewport,
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var session *recording.Session
	if opts.Recording {
		session, err = p.registry.Create(opts.SessionName, opts.OutputDir)
		if err != nil {
			driver.Close()
			return nil, err
		}
	}

	instance := &Instance{
		Page:     NewPage(driver, session),
		driver:   driver,
		provider: p,
	}
	if session != nil {
		instance.SessionName = session.Name()
	}

	p.mu.Lock()
	p.open[instance] = struct{}{}
	p.mu.Unlock()

	return instance, nil
}

// ReleaseAll closes every instance still open. It is the safety net the
// executor runs on timeout and error paths.
func (p *Provider) ReleaseAll() {
	p.mu.Lock()
	instances := make([]*Instance, 0, len(p.open))
	for instance := range p.open {
		instances = append(instances, instance)
	}
	p.mu.Unlock()

	for _, instance := range instances {
		_ = instance.Close()
	}
}

// Shutdown releases all instances and stops the engine.
func (p *Provider) Shutdown() error {
	p.ReleaseAll()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	p.started = false
	return p.engine.Stop()
}

func (p *Provider) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	if err := p.engine.Start(); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *Provider) forget(instance *Instance) {
	p.mu.Lock()
	delete(p.open, instance)
	p.mu.Unlock()
}
