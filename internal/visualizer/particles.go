package visualizer

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// MaxParticles bounds the live particle count regardless of spawn rate.
const MaxParticles = 4096

const (
	particleTrailAlpha = 0.1
	particleGravity    = 0.02
	particleDeadZone   = 50.0
	particleSpawnRate  = 0.2
)

// Shape is the outline a particle is drawn with.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeTriangle
)

// Particle is one emitter particle. Positions are logical pixels.
type Particle struct {
	X, Y          float64
	VX, VY        float64
	Radius        float64
	Color         colorful.Color
	Age           float64
	MaxAge        float64
	Rotation      float64
	RotationSpeed float64
	Shape         Shape
}

// Opacity fades linearly from 1 at birth to 0 at MaxAge.
func (p *Particle) Opacity() float64 {
	return clamp01(1 - p.Age/p.MaxAge)
}

// Particles spawns particles on a ring around the center in proportion to
// loudness and pulls them back toward the center. Old frames fade out under a
// translucent black wash, leaving trails.
type Particles struct {
	logger    *slog.Logger
	rng       *rand.Rand
	particles []Particle

	// warnedDensity limits the missing-density warning to once per activation.
	warnedDensity bool
}

// NewParticles creates a particle renderer.
func NewParticles(opts Options) *Particles {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Particles{
		logger: opts.logger().With(slog.String("renderer", string(domain.ModeParticles))),
		rng:    rng,
	}
}

// Mode implements Renderer.
func (r *Particles) Mode() domain.Mode { return domain.ModeParticles }

// Count returns the number of live particles.
func (r *Particles) Count() int { return len(r.particles) }

// Live returns a copy of the live particles.
func (r *Particles) Live() []Particle {
	out := make([]Particle, len(r.particles))
	copy(out, r.particles)
	return out
}

// Release drops every particle.
func (r *Particles) Release() {
	r.particles = nil
	r.warnedDensity = false
}

// SpawnCount returns how many particles a frame spawns.
func SpawnCount(amplitude, sensitivity float64, density int) int {
	return int(math.Floor(amplitude * sensitivity * float64(density) * particleSpawnRate))
}

// Step spawns and advances particles for one frame around center (cx, cy),
// then removes expired ones.
func (r *Particles) Step(frame domain.AudioFrame, settings domain.VisualizationSettings, p Palette, cx, cy float64) {
	density, err := settings.EffectiveParticleDensity()
	if err != nil && !r.warnedDensity {
		r.logger.Warn("particle density missing, using default", slog.Any("error", err))
		r.warnedDensity = true
	}

	sf := settings.SensitivityFactor()
	spawn := min(SpawnCount(frame.Amplitude, sf, density), MaxParticles-len(r.particles))
	for range spawn {
		r.particles = append(r.particles, r.spawn(cx, cy, sf, p))
	}

	live := r.particles[:0]
	for i := range r.particles {
		pt := r.particles[i]
		pt.X += pt.VX
		pt.Y += pt.VY
		pt.Rotation += pt.RotationSpeed
		pt.Age++

		dx, dy := cx-pt.X, cy-pt.Y
		if d := math.Hypot(dx, dy); d > particleDeadZone {
			pt.VX += dx / d * particleGravity
			pt.VY += dy / d * particleGravity
		}
		if pt.Age < pt.MaxAge {
			live = append(live, pt)
		}
	}
	clear(r.particles[len(live):])
	r.particles = live
}

func (r *Particles) spawn(cx, cy, sf float64, p Palette) Particle {
	angle := r.rng.Float64() * 2 * math.Pi
	dist := (r.rng.Float64()*50 + 100) * sf
	speed := r.rng.Float64() + 0.5
	heading := angle + (r.rng.Float64()-0.5)*math.Pi/2

	return Particle{
		X:             cx + math.Cos(angle)*dist,
		Y:             cy + math.Sin(angle)*dist,
		VX:            math.Cos(heading) * speed,
		VY:            math.Sin(heading) * speed,
		Radius:        r.rng.Float64()*6 + 2,
		Color:         p.Cycle(r.rng.IntN(max(1, len(p)))),
		MaxAge:        r.rng.Float64()*100 + 100,
		Rotation:      r.rng.Float64() * 2 * math.Pi,
		RotationSpeed: (r.rng.Float64() - 0.5) * 0.1,
		Shape:         Shape(r.rng.IntN(3)),
	}
}

// DrawFrame implements Renderer.
func (r *Particles) DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, _ float64) error {
	c := s.Canvas()
	c.Fade(colorful.Color{}, particleTrailAlpha)

	cx, cy := c.Width()/2, c.Height()/2
	r.Step(frame, settings, palette(), cx, cy)

	for i := range r.particles {
		drawParticle(c, &r.particles[i])
	}
	return nil
}

// DrawIdle drops all particles and clears the surface.
func (r *Particles) DrawIdle(s *Surface, _ domain.VisualizationSettings, _ PaletteFunc) {
	r.particles = nil
	clearIdle(s)
}

func drawParticle(c *Canvas, p *Particle) {
	col := withAlpha(p.Color, p.Opacity())
	switch p.Shape {
	case ShapeSquare:
		c.FillPolygon(rotated(p, []Point{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}), col)
	case ShapeTriangle:
		c.FillPolygon(rotated(p, []Point{{0, -1}, {-1, 1}, {1, 1}}), col)
	default:
		c.FillCircle(p.X, p.Y, p.Radius, col)
	}
}

// rotated scales a unit outline by the particle radius, rotates and translates it.
func rotated(p *Particle, unit []Point) []Point {
	sin, cos := math.Sincos(p.Rotation)
	out := make([]Point, len(unit))
	for i, u := range unit {
		x, y := u.X*p.Radius, u.Y*p.Radius
		out[i] = Point{p.X + x*cos - y*sin, p.Y + x*sin + y*cos}
	}
	return out
}
