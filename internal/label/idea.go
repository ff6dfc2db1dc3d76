package label

import (
	"strconv"

	"geometree/internal/field"

	"github.com/rs/xid"
)

// Idea is a labelled control point.
type Idea struct {
	ID    xid.ID
	Index int
	Text  string

	Position field.Vec3
	Radius   float64

	// Elevation is the last host elevation received for the idea.
	Elevation float64
	// Height is the label lift above the surface.
	Height  float64
	Visible bool
	Opacity float64
	Editing bool
}

// Anchor returns the label position in camera space: the idea X, the
// label height as Y and the idea Y as Z.
func (i Idea) Anchor() field.Vec3 {
	return field.Vec3{X: i.Position.X, Y: i.Height, Z: i.Position.Y}
}

// String is the label text with the index as fallback.
func (i Idea) String() string {
	if i.Text == "" {
		return "#" + strconv.Itoa(i.Index)
	}
	return i.Text
}

// Camera is the viewer state that drives label visibility.
type Camera struct {
	// Scale is the zoom factor; larger is closer.
	Scale    float64
	Position field.Vec3
}

// DefaultCamera mirrors a camera sitting at (2, 2, 2) with no zoom.
func DefaultCamera() Camera {
	return Camera{Scale: 1, Position: field.Vec3{X: 2, Y: 2, Z: 2}}
}

// lift converts a host elevation into a label height. Elevation is at most 0
// at the surface and -n inside n overlapping points.
func lift(elevation, scale, offset float64) float64 {
	return (-elevation-1)*scale + offset
}

// visible reports whether a label at elevation should be drawn at the given
// camera scale. Deeper labels need a closer camera.
func visible(elevation, cameraScale float64) bool {
	return cameraScale >= 0.8-(-elevation-1)*0.15
}

// opacity fades a label between 2 and 5 scaled units from the camera.
func opacity(distance, cameraScale float64) float64 {
	if cameraScale <= 0 {
		cameraScale = 1
	}
	o := 1 - ((distance/cameraScale)-2)/(5-2)
	if o < 0 {
		return 0
	}
	if o > 1 {
		return 1
	}
	return o
}
