package gpu

import "fmt"

// WorkgroupSize is the number of cells one workgroup evaluates.
const WorkgroupSize = 64

// maxWorkgroups is the per-dimension dispatch limit guaranteed by WebGPU.
const maxWorkgroups = 65535

// Param slots in the params storage buffer.
const (
	paramW = iota
	paramH
	paramMinX
	paramMaxY
	paramDX
	paramDY
	paramCount
	paramFallbackR
	paramFallbackG
	paramFallbackB
	numParams
)

// Workgroups returns the number of workgroups needed for cells.
func Workgroups(cells int) (uint32, error) {
	n := (cells + WorkgroupSize - 1) / WorkgroupSize
	if n > maxWorkgroups {
		return 0, fmt.Errorf("%w: %d cells", ErrTooLarge, cells)
	}
	return uint32(n), nil
}

// InfluenceShader returns the WGSL compute shader that evaluates the
// influence field and first-match classification for one cell per
// invocation. The warp offsets are precomputed per cell. The class output
// packs (r, g, b, index) with index -1 for the fallback colour.
func InfluenceShader(capacity int, threshold float64) string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> points : array<vec4<f32>>;
		@group(0) @binding(1) var<storage, read> colors : array<vec4<f32>>;
		@group(0) @binding(2) var<storage, read> warp : array<vec2<f32>>;
		@group(0) @binding(3) var<storage, read> params : array<f32>;
		@group(0) @binding(4) var<storage, read_write> field_out : array<f32>;
		@group(0) @binding(5) var<storage, read_write> class_out : array<vec4<f32>>;

		const CAPACITY: u32 = %du;
		const THRESHOLD: f32 = %g;

		@compute @workgroup_size(%d)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let w = u32(params[%d]);
			let h = u32(params[%d]);
			let cell = gid.x;
			if (cell >= w * h) {
				return;
			}
			let x = f32(cell %% w) + 0.5;
			let y = f32(cell / w) + 0.5;
			let q = vec2<f32>(params[%d] + x * params[%d], params[%d] - y * params[%d]) + warp[cell];
			let count = min(u32(params[%d]), CAPACITY);

			var f: f32 = 0.0;
			var cls = vec4<f32>(params[%d], params[%d], params[%d], -1.0);
			var found = false;
			for (var i: u32 = 0u; i < count; i++) {
				let p = points[i];
				if (p.w <= 0.0) {
					continue;
				}
				let d = distance(p.xy, q);
				f -= 1.0 - min(d / p.w, 1.0);
				if (!found && d < THRESHOLD) {
					found = true;
					cls = vec4<f32>(colors[i].xyz, f32(i));
				}
			}
			field_out[cell] = f;
			class_out[cell] = cls;
		}
	`, capacity, threshold, WorkgroupSize,
		paramW, paramH,
		paramMinX, paramDX, paramMaxY, paramDY,
		paramCount,
		paramFallbackR, paramFallbackG, paramFallbackB)
}
