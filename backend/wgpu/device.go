//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// deviceState holds the HAL device either created standalone or borrowed
// from a host application. Borrowed resources are never destroyed here.
type deviceState struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
}

// initStandalone creates a standalone Vulkan device. This is the path
// when the adapter runs without a host GPU framework.
func (d *deviceState) initStandalone() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		d.instance = nil
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
		instance.Destroy()
		d.instance = nil
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.external = false
	return nil
}

// adoptContext takes a shared device from a gpucontext provider whose
// Device and Queue accessors hold the HAL handles directly. Providers
// that wrap them in a higher-level device expose HalDevice/HalQueue
// instead and fall through to adopt.
func (d *deviceState) adoptContext(provider gpucontext.DeviceProvider) error {
	device, dok := provider.Device().(hal.Device)
	queue, qok := provider.Queue().(hal.Queue)
	if !dok || !qok || device == nil || queue == nil {
		return d.adopt(provider)
	}
	d.release()
	d.device = device
	d.queue = queue
	d.external = true
	return nil
}

// adopt takes a shared device from an external provider. The provider
// must expose HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue, the convention GPU host frameworks use.
func (d *deviceState) adopt(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	d.release()
	d.device = device
	d.queue = queue
	d.external = true
	return nil
}

// release destroys owned resources. Borrowed devices are only dropped.
func (d *deviceState) release() {
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.external = false
}

// ready reports whether a device is usable.
func (d *deviceState) ready() bool {
	return d.device != nil && d.queue != nil
}
