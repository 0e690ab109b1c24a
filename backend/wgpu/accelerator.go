package wgpu

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/mandel"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

//go:embed shaders/mandel.wgsl
var mandelShaderWGSL string

// Accelerator dispatches the float32 escape-time kernel to the GPU
// through the wgpu HAL. It implements mandel.Accelerator.
//
// Each RenderRegion call uploads a uniform parameter block and the
// rasterized palette LUT, runs one compute pass over the region and
// reads the packed RGBA8 pixels back through a staging buffer.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Compiled SPIR-V, kept for diagnostics.
	spirv []uint32

	logger atomic.Pointer[slog.Logger]
	ready  bool
}

var _ mandel.Accelerator = (*Accelerator)(nil)

// New creates an unregistered accelerator. GPU resources are acquired
// in Init.
func New() *Accelerator {
	return &Accelerator{}
}

// Register creates an accelerator and installs it as the engine's
// global accelerator. Returns an error when no usable GPU is found;
// the engine then renders everything in software.
func Register() error {
	return mandel.RegisterAccelerator(New())
}

// Name implements mandel.Accelerator.
func (a *Accelerator) Name() string { return "wgpu-compute" }

// SetLogger implements the logger propagation hook used by
// mandel.SetLogger.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	a.logger.Store(l)
}

func (a *Accelerator) log() *slog.Logger {
	if l := a.logger.Load(); l != nil {
		return l
	}
	return mandel.Logger()
}

// Init acquires a GPU device and builds the compute pipeline.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		a.closeLocked()
		return fmt.Errorf("wgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		a.closeLocked()
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue

	if err := a.createPipeline(); err != nil {
		a.closeLocked()
		return err
	}

	a.ready = true
	a.log().Info("wgpu: accelerator initialized", slog.String("gpu", selected.Info.Name))
	return nil
}

// createPipeline compiles the WGSL kernel to SPIR-V and builds the
// compute pipeline around it.
func (a *Accelerator) createPipeline() error {
	spirvBytes, err := naga.Compile(mandelShaderWGSL)
	if err != nil {
		return fmt.Errorf("wgpu: compile kernel shader: %w", err)
	}
	a.spirv = make([]uint32, len(spirvBytes)/4)
	for i := range a.spirv {
		a.spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "mandel_kernel",
		Source: hal.ShaderSource{SPIRV: a.spirv},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mandel_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mandel_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "mandel_pipeline",
		Layout: a.pipeLayout,
		Compute: hal.ComputeState{
			Module:     a.shader,
			EntryPoint: "cs_mandel",
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

// Close releases all GPU resources.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeLocked()
}

func (a *Accelerator) closeLocked() {
	if a.device != nil {
		if a.pipeline != nil {
			a.device.DestroyComputePipeline(a.pipeline)
			a.pipeline = nil
		}
		if a.pipeLayout != nil {
			a.device.DestroyPipelineLayout(a.pipeLayout)
			a.pipeLayout = nil
		}
		if a.bindLayout != nil {
			a.device.DestroyBindGroupLayout(a.bindLayout)
			a.bindLayout = nil
		}
		if a.shader != nil {
			a.device.DestroyShaderModule(a.shader)
			a.shader = nil
		}
		a.device.Destroy()
		a.device = nil
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
	a.queue = nil
	a.ready = false
}

// CanAccelerate implements mandel.Accelerator. Only the plain float32
// tier without perturbation runs on the GPU; the split-precision
// tiers depend on exact FMA behavior WGSL does not guarantee.
func (a *Accelerator) CanAccelerate(p *mandel.Params) bool {
	if p.Tier != mandel.TierFloat || p.Perturb || p.Palette == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}
