// Package wgpu provides a GPU compute accelerator using gogpu/wgpu.
//
// The accelerator runs the float32 escape-time kernel as a WGSL
// compute shader through the wgpu HAL, on Vulkan, Metal or DX12
// depending on the platform. The shader is compiled to SPIR-V at
// initialization with gogpu/naga.
//
// # Scope
//
// Only the plain float32 tier is dispatched to the GPU. Split
// precision (double-single, double-double) and perturbation need
// exact FMA and float64 arithmetic that WGSL does not guarantee, so
// those tiers always render on the CPU. The engine handles the split
// transparently through CanAccelerate.
//
// # Usage
//
//	import (
//		"github.com/gogpu/mandel"
//		"github.com/gogpu/mandel/backend/wgpu"
//	)
//
//	if err := wgpu.Register(); err != nil {
//		log.Printf("GPU unavailable, rendering on CPU: %v", err)
//	}
//
// Registration is optional; without it the engine renders everything
// in software.
package wgpu
