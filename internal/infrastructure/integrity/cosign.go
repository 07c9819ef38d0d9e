// Package integrity wires github.com/sigstore/cosign/v2 into the Resolver's
// optional SignatureVerifier hook (services.SignatureVerifier), gated by
// the --require-signing flag. Grounded on the RequireSigning config field
// named (but never implemented) in the pack's whiskeyjimbo-tack-cli
// internal/config/config.go; weft actually calls cosign's blob-verify path
// instead of leaving it as a config no-op.
package integrity

import (
	"context"
	"fmt"
	"os"

	"github.com/sigstore/cosign/v2/cmd/cosign/cli/verify"
)

// SigFetcher retrieves the detached signature bytes for a plugin URL,
// conventionally "<url>.sig" alongside the plugin artifact itself.
type SigFetcher func(ctx context.Context, sigURL string) ([]byte, error)

// CosignVerifier verifies a plugin's bytes against a detached cosign
// signature using a fixed public key. Keyless/Fulcio verification is out of
// scope: weft targets offline, airgapped plugin resolution where a pinned
// public key is the operable trust model.
type CosignVerifier struct {
	PublicKeyRef string
	FetchSig     SigFetcher
}

// New constructs a CosignVerifier. publicKeyRef follows cosign's own KeyRef
// conventions (a local path or a kms:// URI); fetchSig resolves the
// detached signature for a given plugin URL.
func New(publicKeyRef string, fetchSig SigFetcher) *CosignVerifier {
	return &CosignVerifier{PublicKeyRef: publicKeyRef, FetchSig: fetchSig}
}

// Verify stages data and its fetched signature to temp files (cosign's
// blob-verify command operates on paths, not byte slices) and runs cosign's
// VerifyBlobCmd against them. A nil receiver or empty PublicKeyRef means
// signing is not required, and Verify is a no-op.
func (v *CosignVerifier) Verify(ctx context.Context, url string, data []byte) error {
	if v == nil || v.PublicKeyRef == "" {
		return nil
	}

	sig, err := v.FetchSig(ctx, url+".sig")
	if err != nil {
		return fmt.Errorf("fetching signature for %s: %w", url, err)
	}

	blobPath, err := stageTemp("weft-plugin-*.wasm", data)
	if err != nil {
		return err
	}
	defer os.Remove(blobPath)

	sigPath, err := stageTemp("weft-plugin-*.sig", sig)
	if err != nil {
		return err
	}
	defer os.Remove(sigPath)

	cmd := verify.VerifyBlobCmd{
		KeyRef:     v.PublicKeyRef,
		SigRef:     sigPath,
		IgnoreTlog: true,
	}
	if err := cmd.Exec(ctx, blobPath); err != nil {
		return fmt.Errorf("plugin signature verification failed for %s: %w", url, err)
	}
	return nil
}

func stageTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("staging %s for signature verification: %w", pattern, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("staging %s for signature verification: %w", pattern, err)
	}
	return f.Name(), nil
}
