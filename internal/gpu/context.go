//go:build gpu

package gpu

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// Context holds the single WebGPU device for the process.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
	err      error
}

var (
	shared Context
	logger = log.New(os.Stderr, "(gpu) > ", log.LstdFlags)
)

// GetContext returns the shared GPU context, initialising it on first use.
// Initialisation is attempted once; later calls return the same error.
func GetContext() (*Context, error) {
	shared.once.Do(func() {
		shared.Instance = wgpu.CreateInstance(nil)
		if shared.Instance == nil {
			shared.err = fmt.Errorf("%w: failed to create WebGPU instance", ErrNoGPU)
			return
		}

		var err error
		for _, opts := range []*wgpu.RequestAdapterOptions{
			{PowerPreference: wgpu.PowerPreferenceHighPerformance},
			{PowerPreference: wgpu.PowerPreferenceLowPower},
			nil,
		} {
			shared.Adapter, err = shared.Instance.RequestAdapter(opts)
			if err == nil && shared.Adapter != nil {
				break
			}
			logger.Printf("adapter request failed: %v", err)
		}
		if shared.Adapter == nil {
			shared.err = fmt.Errorf("%w: all adapter attempts failed: %v", ErrNoGPU, err)
			return
		}

		info := shared.Adapter.GetInfo()
		logger.Printf("using adapter %s (%s)", info.Name, info.VendorName)

		shared.Device, err = shared.Adapter.RequestDevice(nil)
		if err != nil {
			shared.err = fmt.Errorf("%w: %v", ErrNoGPU, err)
			return
		}
		shared.Queue = shared.Device.GetQueue()
	})
	if shared.err != nil {
		return nil, shared.err
	}
	if shared.Device == nil || shared.Queue == nil {
		return nil, fmt.Errorf("%w: device or queue not initialised", ErrNoGPU)
	}
	return &shared, nil
}

// readBuffer copies size float32 values out of buffer through a staging
// buffer. It gives up after two seconds or when ctx ends.
func (c *Context) readBuffer(ctx context.Context, buffer *wgpu.Buffer, size int) ([]float32, error) {
	sizeBytes := uint64(size * 4)
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ReadStaging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Destroy()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(buffer, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish copy: %w", err)
	}
	c.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("map async: %w", err)
	}

	timeout := time.After(2 * time.Second)
Loop:
	for {
		c.Device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("gpu: read timed out after 2s")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("gpu: failed to get mapped range")
	}
	out := make([]float32, size)
	copy(out, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return out, nil
}
