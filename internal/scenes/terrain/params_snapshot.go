package terrain

import "geometree/internal/core"

// Parameters implements the HUD parameter snapshot.
func (s *Scene) Parameters() core.ParameterSnapshot {
	fc := s.ev.Config()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				core.IntParam("w", "Width", s.cfg.Width),
				core.IntParam("h", "Height", s.cfg.Height),
				core.FloatParam("extent", "Extent", s.cfg.Extent),
				core.FloatParam("zoom", "Zoom", s.zoom),
				core.Int64Param("seed", "Seed", fc.WarpSeed),
			},
		},
		{
			Name: "Field",
			Params: []core.Parameter{
				core.IntParam("points", "Points", s.ev.Len()),
				core.IntParam("capacity", "Capacity", s.ev.Cap()),
				core.FloatParam("threshold", "Classify threshold", fc.Threshold),
				core.FloatParam("warp_amplitude", "Warp amplitude", fc.WarpAmplitude),
				core.FloatParam("warp_time_scale", "Warp time scale", fc.WarpTimeScale),
				core.FloatParam("warp_frequency", "Warp frequency", fc.WarpFrequency),
			},
		},
		{
			Name: "Shading",
			Params: []core.Parameter{
				core.FloatParam("steps", "Bands", s.shader.Steps),
				core.FloatParam("height_scale", "Height scale", s.shader.HeightScale),
			},
		},
	}}
}

// ParameterControls lists the HUD-adjustable tunables.
func (s *Scene) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "zoom", Label: "Zoom", Type: core.ParamTypeFloat, Step: 0.25, Min: s.cfg.MinZoom, Max: s.cfg.MaxZoom, HasMin: true, HasMax: true},
		{Key: "warp_amplitude", Label: "Warp amplitude", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "warp_time_scale", Label: "Warp time scale", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, HasMin: true},
		{Key: "threshold", Label: "Classify threshold", Type: core.ParamTypeFloat, Step: 0.01, Min: 0, Max: 0.5, HasMin: true, HasMax: true},
		{Key: "steps", Label: "Bands", Type: core.ParamTypeFloat, Step: 0.25, Min: 0.5, Max: 20, HasMin: true, HasMax: true},
		{Key: "height_scale", Label: "Height scale", Type: core.ParamTypeFloat, Step: 0.01, Min: 0.01, Max: 1, HasMin: true, HasMax: true},
	}
}

// SetFloatParameter applies a HUD adjustment.
func (s *Scene) SetFloatParameter(key string, value float64) bool {
	fc := s.ev.Config()
	switch key {
	case "zoom":
		s.setZoom(value)
		return true
	case "warp_amplitude":
		if value < 0 {
			return false
		}
		fc.WarpAmplitude = value
	case "warp_time_scale":
		if value < 0 {
			return false
		}
		fc.WarpTimeScale = value
	case "warp_frequency":
		if value <= 0 {
			return false
		}
		fc.WarpFrequency = value
	case "threshold":
		if value < 0 {
			return false
		}
		fc.Threshold = value
	case "steps":
		if value <= 0 {
			return false
		}
		s.shader.Steps = value
		return true
	case "height_scale":
		if value <= 0 {
			return false
		}
		s.shader.HeightScale = value
		return true
	default:
		return false
	}
	s.ev.Retune(fc)
	s.frame.Invalidate()
	return true
}

// SetIntParameter applies integer HUD adjustments. The active point count
// can only be truncated here; slots past it are handled by the shrink
// policy.
func (s *Scene) SetIntParameter(key string, value int) bool {
	switch key {
	case "points":
		if value > s.ev.Len() {
			return false
		}
		return s.SetActiveLength(value) == nil
	default:
		return false
	}
}
