// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/gfx"
)

// ErrNoAdapter is returned by New when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

// openDevice creates a standalone Vulkan device, preferring a discrete or
// integrated GPU over software adapters.
func openDevice() (hal.Instance, hal.Device, hal.Queue, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: create instance: %w", ErrNoAdapter, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("%w: open device: %w", ErrNoAdapter, err)
	}
	rendergraph.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return instance, openDev.Device, openDev.Queue, nil
}

// New opens a GPU device and creates a context whose display surface is
// an offscreen width x height texture.
func New(width, height int) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid surface size %dx%d: %w", width, height, gfx.ErrSetup)
	}
	instance, device, queue, err := openDevice()
	if err != nil {
		return nil, err
	}
	c, err := newContext(device, queue, width, height)
	if err != nil {
		device.Destroy()
		instance.Destroy()
		return nil, err
	}
	c.instance = instance
	return c, nil
}

// NewFromProvider creates a context on a device shared by the host
// application. The provider must expose its HAL objects through
// HalDevice() any and HalQueue() any. The shared device is not destroyed
// by Context.Destroy.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types: %w", gfx.ErrSetup)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device: %w", gfx.ErrSetup)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue: %w", gfx.ErrSetup)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid surface size %dx%d: %w", width, height, gfx.ErrSetup)
	}
	c, err := newContext(device, queue, width, height)
	if err != nil {
		return nil, err
	}
	c.shared = true
	return c, nil
}
