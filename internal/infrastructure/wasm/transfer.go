package wasm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// transfer implements the byte-transfer protocol of spec §4.C: the guest
// exposes a fixed-size window buffer in its own linear memory plus three
// primitives (clear_shared_bytes, add_to_shared_bytes_from_buffer,
// set_buffer_with_shared_bytes) that move arbitrarily sized payloads through
// a plugin-local staging area, one window-sized chunk at a time.
//
// No corpus example implements this exact three-primitive protocol (the
// teacher's plugin.go instead uses a packed-ptr+length allocate/deallocate
// ABI); this is built fresh from spec §4.C, cross-checked against
// original_source/crates/dprint/src/plugins/wasm/functions.rs, whose
// WasmFunctions wraps the identical five low-level exports under the same
// names, and plugin.rs's BytesTransmitter-driven send_string/receive_string
// call sequence (send: write chunks then call the setter function with no
// arguments; receive: call the getter, then drain the announced length).
type transfer struct {
	instance   api.Module
	windowPtr  uint32
	windowSize uint32

	getWindowBuf      api.Function
	getWindowBufSize  api.Function
	clearSharedBytes  api.Function
	addToSharedBytes  api.Function
	setBufferFromFunc api.Function
}

func newTransfer(ctx context.Context, instance api.Module) (*transfer, error) {
	t := &transfer{
		instance:          instance,
		getWindowBuf:      instance.ExportedFunction("get_wasm_memory_buffer"),
		getWindowBufSize:  instance.ExportedFunction("get_wasm_memory_buffer_size"),
		clearSharedBytes:  instance.ExportedFunction("clear_shared_bytes"),
		addToSharedBytes:  instance.ExportedFunction("add_to_shared_bytes_from_buffer"),
		setBufferFromFunc: instance.ExportedFunction("set_buffer_with_shared_bytes"),
	}
	for name, fn := range map[string]api.Function{
		"get_wasm_memory_buffer":          t.getWindowBuf,
		"get_wasm_memory_buffer_size":     t.getWindowBufSize,
		"clear_shared_bytes":              t.clearSharedBytes,
		"add_to_shared_bytes_from_buffer": t.addToSharedBytes,
		"set_buffer_with_shared_bytes":    t.setBufferFromFunc,
	} {
		if fn == nil {
			return nil, fmt.Errorf("plugin does not export %s", name)
		}
	}

	results, err := t.getWindowBuf.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("calling get_wasm_memory_buffer: %w", err)
	}
	t.windowPtr = uint32(results[0])

	results, err = t.getWindowBufSize.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("calling get_wasm_memory_buffer_size: %w", err)
	}
	t.windowSize = uint32(results[0])
	if t.windowSize == 0 {
		return nil, fmt.Errorf("plugin reported a zero-size wasm memory buffer")
	}

	return t, nil
}

// send writes data into the guest's staging area, chunked through the
// window buffer, then invokes the named zero-argument setter that consumes
// it (e.g. "set_file_path", "set_global_config").
func (t *transfer) send(ctx context.Context, setterName string, data []byte) error {
	if _, err := t.clearSharedBytes.Call(ctx, uint64(len(data))); err != nil {
		return fmt.Errorf("calling clear_shared_bytes: %w", err)
	}

	for offset := 0; offset < len(data); offset += int(t.windowSize) {
		end := offset + int(t.windowSize)
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		if !t.instance.Memory().Write(t.windowPtr, chunk) {
			return fmt.Errorf("writing %d bytes to guest window at offset %d", len(chunk), t.windowPtr)
		}
		if _, err := t.addToSharedBytes.Call(ctx, uint64(len(chunk))); err != nil {
			return fmt.Errorf("calling add_to_shared_bytes_from_buffer: %w", err)
		}
	}

	setter := t.instance.ExportedFunction(setterName)
	if setter == nil {
		return fmt.Errorf("plugin does not export %s", setterName)
	}
	if _, err := setter.Call(ctx); err != nil {
		return fmt.Errorf("calling %s: %w", setterName, err)
	}
	return nil
}

// receive calls the named zero-argument getter (which returns the payload
// length and stages the bytes), then drains the staging area through the
// window buffer one chunk at a time.
func (t *transfer) receive(ctx context.Context, getterName string) ([]byte, error) {
	getter := t.instance.ExportedFunction(getterName)
	if getter == nil {
		return nil, fmt.Errorf("plugin does not export %s", getterName)
	}
	results, err := getter.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", getterName, err)
	}
	length := uint32(results[0])

	out := make([]byte, 0, length)
	for offset := uint32(0); offset < length; offset += t.windowSize {
		chunkLen := t.windowSize
		if offset+chunkLen > length {
			chunkLen = length - offset
		}
		if _, err := t.setBufferFromFunc.Call(ctx, uint64(offset), uint64(chunkLen)); err != nil {
			return nil, fmt.Errorf("calling set_buffer_with_shared_bytes: %w", err)
		}
		chunk, ok := t.instance.Memory().Read(t.windowPtr, chunkLen)
		if !ok {
			return nil, fmt.Errorf("reading %d bytes from guest window at offset %d", chunkLen, t.windowPtr)
		}
		out = append(out, chunk...)
	}
	return out, nil
}
