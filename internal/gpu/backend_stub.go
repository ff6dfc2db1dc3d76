//go:build !gpu

package gpu

import "geometree/internal/raster"

// NewBackend reports ErrNoGPU in builds without the gpu tag.
func NewBackend() (raster.Backend, error) { return nil, ErrNoGPU }
