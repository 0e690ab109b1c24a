package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/mandel"
	"github.com/gogpu/wgpu/hal"
)

// lutSize is the palette rasterization size for GPU dispatch.
const lutSize = 256

// gpuFrameParams is the uniform parameter block. Must match the
// Params struct in mandel.wgsl.
type gpuFrameParams struct {
	OriginX      float32 // Full-image plane origin, real part
	OriginY      float32 // Full-image plane origin, imaginary part
	Step         float32 // Plane units per pixel
	SmoothOffset float32 // Edge-clip rescale offset
	SmoothScale  float32 // Edge-clip rescale width
	InvContrast  float32 // Reciprocal contrast exponent
	Width        uint32  // Region width in pixels
	Height       uint32  // Region height in pixels
	MaxIter      uint32  // Iteration cap
	LUTSize      uint32  // Palette LUT entry count
	MinX         uint32  // Region origin in global pixel coordinates
	MinY         uint32
	Samples      uint32 // Subsamples per pixel (1, 4, 9 or 16)
	Factor       uint32 // Per-axis subsample grid factor
	Pad0         uint32 // Padding for alignment
	Pad1         uint32 // Padding for alignment
}

// makeFrameParams packs the snapshot into the uniform block.
func makeFrameParams(p *mandel.Params, region image.Rectangle) gpuFrameParams {
	invContrast := float32(1)
	if p.Contrast > 0 && p.Contrast != 1 {
		invContrast = float32(1 / p.Contrast)
	}
	samples, factor := uint32(1), uint32(1)
	switch p.Samples {
	case 4:
		samples, factor = 4, 2
	case 9:
		samples, factor = 9, 3
	case 16:
		samples, factor = 16, 4
	}
	return gpuFrameParams{
		OriginX:      float32(p.Mapping.OriginX),
		OriginY:      float32(p.Mapping.OriginY),
		Step:         float32(p.Mapping.Step),
		SmoothOffset: float32(p.Tuning.SmoothOffset),
		SmoothScale:  float32(p.Tuning.SmoothScale),
		InvContrast:  invContrast,
		Width:        uint32(region.Dx()),
		Height:       uint32(region.Dy()),
		MaxIter:      uint32(p.MaxIter),
		LUTSize:      lutSize,
		MinX:         uint32(region.Min.X),
		MinY:         uint32(region.Min.Y),
		Samples:      samples,
		Factor:       factor,
	}
}

// packPalette rasterizes the snapshot palette into packed RGBA8 LUT
// entries for the shader.
func packPalette(pal mandel.Palette) []byte {
	out := make([]byte, lutSize*4)
	for i := 0; i < lutSize; i++ {
		c := pal.At(float64(i) / float64(lutSize-1))
		packed := channel8(c.R) | channel8(c.G)<<8 | channel8(c.B)<<16 | channel8(c.A)<<24
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
	return out
}

// channel8 quantizes a [0, 1] channel to 8 bits.
func channel8(v float64) uint32 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint32(v*255 + 0.5)
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// RenderRegion implements mandel.Accelerator: one compute pass over
// the region, then a staged readback into dst.
func (a *Accelerator) RenderRegion(p *mandel.Params, region image.Rectangle, dst []uint8, stride int) error {
	w, h := region.Dx(), region.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if need := (h-1)*stride + w*4; len(dst) < need {
		return fmt.Errorf("wgpu: render buffer too small: %d < %d", len(dst), need)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		return mandel.ErrFallbackToCPU
	}

	start := time.Now()
	params := makeFrameParams(p, region)
	paramBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)) //nolint:gosec // safe struct access
	lutBytes := packPalette(p.Palette)
	pixelBufSize := uint64(w * h * 4)

	uniformBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandel_params", Size: uint64(len(paramBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	defer a.device.DestroyBuffer(uniformBuf)

	lutBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandel_palette", Size: uint64(len(lutBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create palette buffer: %w", err)
	}
	defer a.device.DestroyBuffer(lutBuf)

	storageBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandel_pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create storage buffer: %w", err)
	}
	defer a.device.DestroyBuffer(storageBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandel_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(uniformBuf, 0, paramBytes)
	a.queue.WriteBuffer(lutBuf, 0, lutBytes)

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "mandel_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: lutBuf.NativeHandle(), Offset: 0, Size: uint64(len(lutBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: storageBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	readback, err := a.encodePass(bindGroup, storageBuf, stagingBuf, uint32(w), uint32(h), pixelBufSize)
	if err != nil {
		return err
	}

	unpackPixels(readback, dst, w, h, stride)
	a.log().Debug("wgpu: region dispatched",
		slog.Int("width", w), slog.Int("height", h),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// encodePass records one compute pass plus the staging copy, submits
// it and waits for the fence before reading the pixels back.
func (a *Accelerator) encodePass(
	bindGroup hal.BindGroup, storageBuf, stagingBuf hal.Buffer,
	w, h uint32, pixelBufSize uint64,
) ([]byte, error) {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mandel_encoder"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mandel_dispatch"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "mandel_pass"})
	computePass.SetPipeline(a.pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.Dispatch((w+7)/8, (h+7)/8, 1)
	computePass.End()

	encoder.CopyBufferToBuffer(storageBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !fenceOK {
		return nil, fmt.Errorf("wgpu: wait for GPU: fence timed out")
	}

	readback := make([]byte, pixelBufSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return readback, nil
}

// unpackPixels copies the packed u32 pixel buffer into a strided RGBA8
// destination.
func unpackPixels(packed []byte, dst []uint8, w, h, stride int) {
	for row := 0; row < h; row++ {
		src := row * w * 4
		off := row * stride
		for x := 0; x < w; x++ {
			val := binary.LittleEndian.Uint32(packed[src+x*4:])
			dst[off+0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
			dst[off+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
			dst[off+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
			dst[off+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
			off += 4
		}
	}
}
