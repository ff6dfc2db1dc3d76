package core

// Size describes the dimensions of a scene raster in cells.
type Size struct {
	W int
	H int
}

// Scene defines the minimal contract a visualization mode must implement.
// Pixels returns W*H RGBA bytes for the most recent Step.
type Scene interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Pixels() []byte
}

// Interactive is implemented by scenes that accept pointer and keyboard
// input. Coordinates are fractional cell positions.
type Interactive interface {
	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp(x, y float64)
	Wheel(dy float64)
	TypeText(runes []rune)
	Backspace()
	Enter()
}

// Label is a text marker anchored to a cell position.
type Label struct {
	Text string
	X, Y float64
	// Lift raises the label above its anchor, in cells.
	Lift    float64
	Opacity float64
	Visible bool
	Editing bool
}

// LabelProvider exposes labels for the overlay to draw.
type LabelProvider interface {
	Labels() []Label
}

// Factory constructs a Scene using an optional configuration map.
type Factory func(cfg map[string]string) Scene

var scenes = map[string]Factory{}

// Register adds a scene factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	scenes[name] = f
}

// Scenes exposes the registry of available scene factories.
func Scenes() map[string]Factory {
	return scenes
}
