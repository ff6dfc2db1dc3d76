package metaball

import "geometree/internal/core"

// Parameters implements the HUD parameter snapshot.
func (s *Scene) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Balls",
			Params: []core.Parameter{
				core.IntParam("balls", "Balls", s.ev.Len()),
				core.IntParam("capacity", "Capacity", s.ev.Cap()),
				core.FloatParam("radius", "New ball radius", s.cfg.BallRadius),
				core.Int64Param("seed", "Seed", s.seed),
			},
		},
		{
			Name: "Shading",
			Params: []core.Parameter{
				core.FloatParam("inside_max", "Inside max", s.shader.InsideMax),
				core.FloatParam("outline_min", "Outline min", s.shader.OutlineMin),
				core.FloatParam("outline_max", "Outline max", s.shader.OutlineMax),
			},
		},
	}}
}

// ParameterControls lists the HUD-adjustable tunables.
func (s *Scene) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "radius", Label: "New ball radius", Type: core.ParamTypeFloat, Step: 0.005, Min: 0.005, Max: 0.2, HasMin: true, HasMax: true},
		{Key: "inside_max", Label: "Inside max", Type: core.ParamTypeFloat, Step: 0.05, Min: 0.05, Max: 5, HasMin: true, HasMax: true},
		{Key: "outline_min", Label: "Outline min", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 5, HasMin: true, HasMax: true},
		{Key: "balls", Label: "Balls", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true},
	}
}

// SetFloatParameter applies a HUD adjustment.
func (s *Scene) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "radius":
		if value <= 0 {
			return false
		}
		s.cfg.BallRadius = value
		return true
	case "inside_max":
		if value <= s.shader.InsideMin {
			return false
		}
		s.shader.InsideMax = value
	case "outline_min":
		if value < 0 || value >= s.shader.OutlineMax {
			return false
		}
		s.shader.OutlineMin = value
	case "outline_max":
		if value <= s.shader.OutlineMin {
			return false
		}
		s.shader.OutlineMax = value
	default:
		return false
	}
	s.stale = true
	return true
}

// SetIntParameter truncates the ball list.
func (s *Scene) SetIntParameter(key string, value int) bool {
	if key != "balls" || value > s.ev.Len() {
		return false
	}
	return s.SetActiveLength(value) == nil
}
