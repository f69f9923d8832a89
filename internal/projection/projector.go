package projection

import (
	"sync"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

// Renderer draws one surface from a View.
type Renderer interface {
	Render(View) error
}

type RendererFunc func(View) error

func (f RendererFunc) Render(v View) error { return f(v) }

// Projector observes a cart.Store and hands each new View to every renderer.
// All renderers receive the same value for a given version.
type Projector struct {
	policy    pricing.Policy
	logger    *zap.Logger
	mu        sync.Mutex
	renderers []Renderer
	last      View
}

func NewProjector(policy pricing.Policy, logger *zap.Logger, renderers ...Renderer) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{policy: policy, logger: logger, renderers: renderers}
}

func (p *Projector) AddRenderer(r Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderers = append(p.renderers, r)
}

// CartChanged implements cart.Observer.
func (p *Projector) CartChanged(snap cart.Snapshot) {
	v := Project(snap, p.policy)

	p.mu.Lock()
	p.last = v
	renderers := append([]Renderer(nil), p.renderers...)
	p.mu.Unlock()

	for _, r := range renderers {
		if err := r.Render(v); err != nil {
			p.logger.Warn("render failed", zap.Uint64("version", v.Version), zap.Error(err))
		}
	}
}

// Current returns the most recently projected view.
func (p *Projector) Current() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
