package visualizer

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/visualizer/scene"
)

const (
	sceneBars        = 48
	sceneRingRadius  = 10.0
	sceneBarGain     = 15.0
	sceneSphereSize  = 3.0
	sceneCameraDist  = 30.0
	sceneCameraFOV   = 75.0
	sceneOrbitFactor = 0.01
)

var (
	sceneOrigin = r3.Vec{}
	sceneLight  = r3.Vec{X: 25, Y: 50, Z: 25}

	errorRed = colorful.Color{R: 0.86, G: 0.15, B: 0.15}
)

// ThreeD draws a ring of bars around a pulsing sphere, seen by a camera
// orbiting the center. Meshes live on a scene.Device that is acquired on the
// first frame and released by Release.
type ThreeD struct {
	logger    *slog.Logger
	newDevice scene.DeviceFactory

	device scene.Device
	scene  *scene.Scene
	camera *scene.Camera
	bars   []*scene.Mesh
	sphere *scene.Mesh

	// paletteKey is the palette the materials were last colored with.
	paletteKey string

	// acquireErr is the last device failure and failedVersion the surface
	// version it happened on. Acquisition is retried once the surface changes.
	acquireErr    error
	failedVersion uint64

	warnedRotation bool
}

// NewThreeD creates a 3D renderer.
func NewThreeD(opts Options) *ThreeD {
	factory := opts.Device
	if factory == nil {
		factory = scene.NewSoftwareDevice
	}
	return &ThreeD{
		logger:    opts.logger().With(slog.String("renderer", string(domain.Mode3D))),
		newDevice: factory,
	}
}

// Mode implements Renderer.
func (r *ThreeD) Mode() domain.Mode { return domain.Mode3D }

// LiveMeshes returns the number of meshes held on the device.
func (r *ThreeD) LiveMeshes() int {
	if r.device == nil {
		return 0
	}
	return r.device.Live()
}

// Bars returns the bar meshes, or nil before the first frame.
func (r *ThreeD) Bars() []*scene.Mesh { return r.bars }

// Sphere returns the center mesh, or nil before the first frame.
func (r *ThreeD) Sphere() *scene.Mesh { return r.sphere }

// Camera returns the orbiting camera, or nil before the first frame.
func (r *ThreeD) Camera() *scene.Camera { return r.camera }

// Release disposes every mesh and closes the device.
func (r *ThreeD) Release() {
	if r.device != nil {
		for _, m := range r.bars {
			r.device.Dispose(m)
		}
		r.device.Dispose(r.sphere)
		if err := r.device.Close(); err != nil {
			r.logger.Warn("failed to close device", slog.Any("error", err))
		}
	}
	r.device = nil
	r.scene = nil
	r.camera = nil
	r.bars = nil
	r.sphere = nil
	r.paletteKey = ""
	r.acquireErr = nil
	r.failedVersion = 0
	r.warnedRotation = false
}

// acquire builds the scene on a fresh device. It returns the previous
// failure without retrying while the surface is unchanged.
func (r *ThreeD) acquire(s *Surface, p Palette) error {
	if r.device != nil {
		return nil
	}
	if r.acquireErr != nil && s.Version() == r.failedVersion {
		return r.acquireErr
	}

	w, h := s.Size()
	dev, err := r.newDevice(w, h)
	if err != nil {
		var rae *domain.ResourceAcquisitionError
		if !errors.As(err, &rae) {
			err = domain.NewResourceAcquisitionError("3d device", "device factory failed", err)
		}
		r.acquireErr = err
		r.failedVersion = s.Version()
		r.logger.Warn("3d device unavailable", slog.Int("width", w), slog.Int("height", h), slog.Any("error", err))
		return err
	}

	r.device = dev
	r.acquireErr = nil
	r.scene = scene.New(0.5)
	r.scene.AddLight(sceneLight, 1)
	r.camera = scene.NewPerspectiveCamera(sceneCameraFOV, r3.Vec{Z: sceneCameraDist})

	box := scene.BoxGeometry(0.5, 1, 0.5)
	r.bars = make([]*scene.Mesh, sceneBars)
	for i := range sceneBars {
		bar := dev.NewMesh(box, scene.PhongMaterial(p.Cycle(i), 50))
		angle := float64(i) / sceneBars * 2 * math.Pi
		bar.Position = r3.Vec{X: math.Sin(angle) * sceneRingRadius, Z: math.Cos(angle) * sceneRingRadius}
		bar.LookAt(sceneOrigin)
		r.bars[i] = bar
	}
	r.sphere = dev.NewMesh(scene.SphereGeometry(sceneSphereSize, 32, 32), scene.PhongMaterial(p.Color(0), 30))

	r.scene.Add(r.bars...)
	r.scene.Add(r.sphere)
	r.paletteKey = strings.Join(p, ",")
	r.logger.Debug("3d scene created", slog.Int("meshes", dev.Live()))
	return nil
}

// recolor updates materials when the palette changed since the last frame.
func (r *ThreeD) recolor(p Palette) {
	key := strings.Join(p, ",")
	if key == r.paletteKey {
		return
	}
	for i, bar := range r.bars {
		intensity := bar.Material.EmissiveIntensity
		bar.Material = scene.PhongMaterial(p.Cycle(i), 50)
		bar.Material.EmissiveIntensity = intensity
	}
	r.sphere.Material = scene.PhongMaterial(p.Color(0), 30)
	r.paletteKey = key
}

// BarValue returns the audio value driving bar i of n.
func BarValue(frequency []float64, i, n int, sensitivity float64) float64 {
	if len(frequency) == 0 || n <= 0 {
		return 0
	}
	idx := min(len(frequency)-1, i*len(frequency)/n)
	return frequency[idx] * sensitivity
}

// CameraOrbit returns the camera position at animation time t.
func CameraOrbit(t, rotationSpeed float64) r3.Vec {
	a := t * rotationSpeed * sceneOrbitFactor
	return r3.Vec{
		X: math.Sin(a) * sceneCameraDist,
		Y: math.Sin(a*0.5)*5 + 5,
		Z: math.Cos(a) * sceneCameraDist,
	}
}

// Update moves the scene to the state for one frame.
func (r *ThreeD) Update(frame domain.AudioFrame, settings domain.VisualizationSettings, elapsed float64) {
	speed, err := settings.EffectiveRotationSpeed()
	if err != nil && !r.warnedRotation {
		r.logger.Warn("rotation speed missing, using default", slog.Any("error", err))
		r.warnedRotation = true
	}

	// Bars and sphere react at twice the normalized sensitivity.
	sens := settings.SensitivityFactor() * 2
	for i, bar := range r.bars {
		v := BarValue(frame.Frequency, i, len(r.bars), sens)
		height := 1 + v*sceneBarGain
		angle := float64(i) / float64(len(r.bars)) * 2 * math.Pi

		bar.Scale = r3.Vec{X: 1, Y: height, Z: 1}
		bar.Position = r3.Vec{
			X: math.Sin(angle) * sceneRingRadius,
			Y: height / 2,
			Z: math.Cos(angle) * sceneRingRadius,
		}
		bar.LookAt(sceneOrigin)
		bar.Material.EmissiveIntensity = math.Min(v*2, 1)
	}
	r.sphere.SetUniformScale(1 + frame.Amplitude*sens)

	r.camera.Position = CameraOrbit(elapsed, speed)
	r.camera.LookAt(sceneOrigin)
}

// DrawFrame implements Renderer. When no device can be acquired it draws an
// error indicator and returns a *domain.ResourceAcquisitionError.
func (r *ThreeD) DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, elapsed float64) error {
	p := palette()
	if err := r.acquire(s, p); err != nil {
		drawUnavailable(s)
		return err
	}
	r.recolor(p)
	r.Update(frame, settings, elapsed)

	c := s.Canvas()
	c.Clear()
	for _, f := range r.scene.Render(r.camera, c.Width(), c.Height()) {
		pts := make([]Point, len(f.Points))
		for i, v := range f.Points {
			pts[i] = Point{v.X, v.Y}
		}
		c.FillPolygon(pts, withAlpha(f.Color, 1))
	}
	return nil
}

// DrawIdle clears the surface. The scene is kept for the next playing frame.
func (r *ThreeD) DrawIdle(s *Surface, _ domain.VisualizationSettings, _ PaletteFunc) {
	clearIdle(s)
}

// drawUnavailable paints the inline indicator shown when 3D cannot render.
func drawUnavailable(s *Surface) {
	c := s.Canvas()
	c.Clear()
	cx, cy := c.Width()/2, c.Height()/2
	c.FillCircle(cx, cy, 20, withAlpha(errorRed, 1))
	c.FillRect(cx-2, cy-12, 4, 14, withAlpha(white, 1))
	c.FillRect(cx-2, cy+6, 4, 4, withAlpha(white, 1))
	c.DrawText(cx, cy+40, "3D view unavailable", withAlpha(white, 0.8))
}
