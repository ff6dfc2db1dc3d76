package gpu

import "errors"

// ErrNoGPU is returned when the binary was built without GPU support or no
// adapter could be initialised.
var ErrNoGPU = errors.New("gpu unavailable (build with -tags=gpu to enable)")

// ErrTooLarge is returned when a viewport needs more workgroups than a single
// dispatch dimension allows.
var ErrTooLarge = errors.New("gpu: viewport exceeds dispatch limit")
