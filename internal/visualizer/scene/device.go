package scene

import (
	"fmt"
	"sync"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// MaxViewport is the largest viewport edge a software device accepts.
const MaxViewport = 8192

// Device owns mesh resources for one rendering context.
type Device interface {
	// NewMesh allocates a mesh on the device.
	NewMesh(g *Geometry, m Material) *Mesh

	// Dispose releases a mesh. Disposing twice is a no-op.
	Dispose(m *Mesh)

	// Live returns the number of meshes not yet disposed.
	Live() int

	// Close disposes every remaining mesh and invalidates the device.
	Close() error
}

// DeviceFactory acquires a device for a viewport of the given pixel size.
type DeviceFactory func(width, height int) (Device, error)

// SoftwareDevice is a CPU-side device that only tracks mesh lifetimes.
type SoftwareDevice struct {
	mu     sync.Mutex
	nextID uint64
	live   map[uint64]*Mesh
	closed bool
}

// NewSoftwareDevice acquires a software device. It fails for empty or
// oversized viewports.
func NewSoftwareDevice(width, height int) (Device, error) {
	if width <= 0 || height <= 0 {
		return nil, domain.NewResourceAcquisitionError("software device",
			fmt.Sprintf("empty viewport %dx%d", width, height), nil)
	}
	if width > MaxViewport || height > MaxViewport {
		return nil, domain.NewResourceAcquisitionError("software device",
			fmt.Sprintf("viewport %dx%d exceeds %d", width, height, MaxViewport), nil)
	}
	return &SoftwareDevice{live: make(map[uint64]*Mesh)}, nil
}

// NewMesh implements Device.
func (d *SoftwareDevice) NewMesh(g *Geometry, m Material) *Mesh {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	mesh := &Mesh{
		Geometry: g,
		Material: m,
		Scale:    r3One,
		id:       d.nextID,
	}
	if d.closed {
		mesh.disposed = true
		return mesh
	}
	d.live[mesh.id] = mesh
	return mesh
}

// Dispose implements Device.
func (d *SoftwareDevice) Dispose(m *Mesh) {
	if m == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, m.id)
	m.disposed = true
}

// Live implements Device.
func (d *SoftwareDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Close implements Device.
func (d *SoftwareDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, m := range d.live {
		m.disposed = true
		delete(d.live, id)
	}
	d.closed = true
	return nil
}

var _ Device = (*SoftwareDevice)(nil)
