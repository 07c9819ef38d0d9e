package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"
)

// OCIRegistry pulls a plugin's compiled artifact from an OCI registry,
// implementing OCIPuller for "oci://" plugin source URLs (SPEC_FULL.md's
// DOMAIN STACK wiring for oras-go + the OCI image-spec types). Not grounded
// on any corpus Go source — none of the example repos import oras-go
// despite several listing it in go.mod — so this is built directly against
// the published oras-go v2 API: resolve the reference into a manifest via
// oras.Copy into an in-memory store, then fetch the manifest's first layer,
// which is expected to be the compiled module.
type OCIRegistry struct{}

// NewOCIRegistry constructs an OCIRegistry.
func NewOCIRegistry() *OCIRegistry {
	return &OCIRegistry{}
}

// Pull resolves ref (an "oci://registry/repository:tag" URL) to the bytes of
// its first image layer.
func (o *OCIRegistry) Pull(ctx context.Context, ref string) ([]byte, error) {
	plainRef := strings.TrimPrefix(ref, "oci://")

	repo, err := remote.NewRepository(plainRef)
	if err != nil {
		return nil, fmt.Errorf("opening OCI repository %s: %w", plainRef, err)
	}

	tag := "latest"
	if idx := strings.LastIndex(plainRef, ":"); idx >= 0 && !strings.Contains(plainRef[idx:], "/") {
		tag = plainRef[idx+1:]
	}

	store := memory.New()
	root, err := oras.Copy(ctx, repo, tag, store, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("copying OCI artifact %s: %w", plainRef, err)
	}

	manifestReader, err := store.Fetch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("fetching OCI manifest for %s: %w", plainRef, err)
	}
	defer manifestReader.Close()

	manifestBytes, err := io.ReadAll(manifestReader)
	if err != nil {
		return nil, fmt.Errorf("reading OCI manifest for %s: %w", plainRef, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, fmt.Errorf("parsing OCI manifest for %s: %w", plainRef, err)
	}
	if len(manifest.Layers) == 0 {
		return nil, fmt.Errorf("OCI artifact %s has no layers", plainRef)
	}

	layerReader, err := store.Fetch(ctx, manifest.Layers[0])
	if err != nil {
		return nil, fmt.Errorf("fetching OCI layer for %s: %w", plainRef, err)
	}
	defer layerReader.Close()

	return io.ReadAll(layerReader)
}
