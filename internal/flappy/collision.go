package flappy

import "github.com/vovakirdan/flappy-neat/internal/mask"

// Collider tests agents against pipes by pixel silhouette.
type Collider struct {
	agent *mask.Mask
}

// NewCollider creates a collider for agents with the given silhouette.
func NewCollider(agent *mask.Mask) *Collider {
	return &Collider{agent: agent}
}

// Collides reports whether the agent's silhouette overlaps either half of
// the pipe. Offsets are taken from the agent's origin: the pipe's left edge
// minus the agent's x, and each half's top edge minus the agent's rounded y.
func (c *Collider) Collides(a *Agent, p *Pipe) bool {
	dx := p.x - a.x
	y := a.pixelY()

	if c.agent.Overlaps(p.shape.top, dx, p.top-y) {
		return true
	}
	return c.agent.Overlaps(p.shape.bottom, dx, p.bottom-y)
}
