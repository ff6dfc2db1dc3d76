//go:build gpu

package gpu

import (
	"context"
	"fmt"
	"sync"

	"geometree/internal/field"
	"geometree/internal/raster"

	"github.com/openfluke/webgpu/wgpu"
)

// FieldBackend evaluates influence frames with a WebGPU compute pass. Point
// data is uploaded only when the snapshot version changes.
type FieldBackend struct {
	mu  sync.Mutex
	ctx *Context

	capacity  int
	cells     int
	threshold float64

	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup

	pointsBuf *wgpu.Buffer
	colorsBuf *wgpu.Buffer
	warpBuf   *wgpu.Buffer
	paramsBuf *wgpu.Buffer
	fieldBuf  *wgpu.Buffer
	classBuf  *wgpu.Buffer

	uploaded    uint64
	hasUploaded bool
}

// NewBackend initialises the shared GPU context and returns a backend bound
// to it.
func NewBackend() (raster.Backend, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}
	return &FieldBackend{ctx: c}, nil
}

// Name identifies the backend.
func (b *FieldBackend) Name() string { return "webgpu" }

// Influence implements raster.Backend.
func (b *FieldBackend) Influence(ctx context.Context, snap *field.Snapshot, vp raster.Viewport, warp []float32, out *raster.Frame) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cells := vp.W * vp.H
	if out.Field.W != vp.W || out.Field.H != vp.H || len(warp) < 2*cells {
		return raster.ErrSize
	}
	groups, err := Workgroups(cells)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensure(snap.Cap(), cells, snap.Threshold()); err != nil {
		return err
	}
	if !b.hasUploaded || b.uploaded != snap.Version {
		points, colors, _ := snap.Buffer()
		b.ctx.Queue.WriteBuffer(b.pointsBuf, 0, wgpu.ToBytes(points))
		b.ctx.Queue.WriteBuffer(b.colorsBuf, 0, wgpu.ToBytes(colors))
		b.uploaded, b.hasUploaded = snap.Version, true
	}

	params := make([]float32, numParams)
	copy(params, vp.Params())
	fb := snap.Fallback()
	params[paramCount] = float32(snap.Len())
	params[paramFallbackR] = float32(fb.R)
	params[paramFallbackG] = float32(fb.G)
	params[paramFallbackB] = float32(fb.B)
	b.ctx.Queue.WriteBuffer(b.paramsBuf, 0, wgpu.ToBytes(params))
	b.ctx.Queue.WriteBuffer(b.warpBuf, 0, wgpu.ToBytes(warp[:2*cells]))

	encoder, err := b.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish dispatch: %w", err)
	}
	b.ctx.Queue.Submit(cmd)

	fieldData, err := b.ctx.readBuffer(ctx, b.fieldBuf, cells)
	if err != nil {
		return err
	}
	classData, err := b.ctx.readBuffer(ctx, b.classBuf, cells*4)
	if err != nil {
		return err
	}

	copy(out.Field.Cells(), fieldData)
	classes := out.Class.Cells()
	indices := out.Index.Cells()
	for i := 0; i < cells; i++ {
		base := i * 4
		classes[i] = field.Color{R: float64(classData[base]), G: float64(classData[base+1]), B: float64(classData[base+2])}
		indices[i] = int32(classData[base+3])
	}
	return nil
}

// Close releases the device buffers.
func (b *FieldBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
	return nil
}

// ensure (re)allocates buffers and recompiles the pipeline when the
// capacity, cell count or threshold change.
func (b *FieldBackend) ensure(capacity, cells int, threshold float64) error {
	if b.pipeline != nil && b.capacity == capacity && b.cells == cells && b.threshold == threshold {
		return nil
	}
	b.release()

	dev := b.ctx.Device
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	alloc := func(label string, floats int) (*wgpu.Buffer, error) {
		return dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Field_" + label,
			Size:  uint64(floats * 4),
			Usage: storage,
		})
	}
	var err error
	if b.pointsBuf, err = alloc("Points", capacity*4); err != nil {
		return err
	}
	if b.colorsBuf, err = alloc("Colors", capacity*4); err != nil {
		return err
	}
	if b.warpBuf, err = alloc("Warp", cells*2); err != nil {
		return err
	}
	if b.paramsBuf, err = alloc("Params", numParams); err != nil {
		return err
	}
	if b.fieldBuf, err = alloc("Out", cells); err != nil {
		return err
	}
	if b.classBuf, err = alloc("Class", cells*4); err != nil {
		return err
	}

	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Field_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: InfluenceShader(capacity, threshold)},
	})
	if err != nil {
		return fmt.Errorf("compile influence shader: %w", err)
	}
	defer module.Release()

	b.pipeline, err = dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "Field_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return err
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: b.pointsBuf, Size: b.pointsBuf.GetSize()},
		{Binding: 1, Buffer: b.colorsBuf, Size: b.colorsBuf.GetSize()},
		{Binding: 2, Buffer: b.warpBuf, Size: b.warpBuf.GetSize()},
		{Binding: 3, Buffer: b.paramsBuf, Size: b.paramsBuf.GetSize()},
		{Binding: 4, Buffer: b.fieldBuf, Size: b.fieldBuf.GetSize()},
		{Binding: 5, Buffer: b.classBuf, Size: b.classBuf.GetSize()},
	}
	b.bindGroup, err = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Field_Bind",
		Layout:  b.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return err
	}

	b.capacity, b.cells, b.threshold = capacity, cells, threshold
	b.hasUploaded = false
	return nil
}

func (b *FieldBackend) release() {
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	for _, buf := range []**wgpu.Buffer{&b.pointsBuf, &b.colorsBuf, &b.warpBuf, &b.paramsBuf, &b.fieldBuf, &b.classBuf} {
		if *buf != nil {
			(*buf).Destroy()
			*buf = nil
		}
	}
}
