package ports

import "context"

// PluginRegistry provides access to remote OCI registries, used by the
// Plugin Cache when a plugin source URL uses the "oci://" scheme instead of
// plain HTTP(S).
type PluginRegistry interface {
	// Pull downloads a plugin artifact's raw bytes from the registry given
	// a full "oci://registry/repo:tag" reference.
	Pull(ctx context.Context, ref string) ([]byte, error)
}
