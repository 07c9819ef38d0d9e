package wasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyModule is the minimal well-formed WebAssembly module: magic number
// plus version, no sections.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func Test_Compile_acceptsWellFormedModule(t *testing.T) {
	out, err := Compile(context.Background(), emptyModule)
	require.NoError(t, err)
	assert.Equal(t, emptyModule, out)
}

func Test_Compile_rejectsMalformedModule(t *testing.T) {
	_, err := Compile(context.Background(), []byte("not a wasm module"))
	assert.Error(t, err)
}

func Test_NewRuntime_loadRejectsMalformedModule(t *testing.T) {
	ctx := context.Background()
	r, err := NewRuntime(ctx, nil)
	require.NoError(t, err)
	defer r.Close(ctx)

	_, err = r.Load(ctx, []byte("not a wasm module"))
	assert.Error(t, err)
}
