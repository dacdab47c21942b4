package rules

import (
	"context"

	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
)

// Defaults returns the five default rules named in spec §4.3, in a fixed
// evaluation order. ValidationRejected reports every one that fails, not
// just the first.
func Defaults() []Rule {
	return []Rule{
		signatureValidRule{},
		versionMonotonicRule{},
		signerIsAdminRule{},
		chainSupportedRule{},
		notAlreadySeenRule{},
	}
}

// signable is implemented by concrete premint kinds that carry an
// EIP-712-style signature over a digest (zoracreator.V2, simplemint.V1).
// Kinds that don't implement it are exempt from signatureValidRule — there
// is nothing to check.
type signable interface {
	EIP712Digest() []byte
	SignatureBytes() ([]byte, error)
}

type signatureValidRule struct{}

func (signatureValidRule) Name() string { return "signature_valid" }

func (signatureValidRule) Evaluate(_ context.Context, p premint.Premint, _ Context) Outcome {
	s, ok := p.(signable)
	if !ok {
		return Accept()
	}
	sig, err := s.SignatureBytes()
	if err != nil {
		return Reject("malformed signature: %v", err)
	}
	digest := s.EIP712Digest()
	if !crypto.VerifySignature(p.Metadata().Signer, digest, sig) {
		return Reject("signature does not recover to claimed signer %s", p.Metadata().Signer.Hex())
	}
	return Accept()
}

type versionMonotonicRule struct{}

func (versionMonotonicRule) Name() string { return "version_monotonic" }

func (versionMonotonicRule) Evaluate(ctx context.Context, p premint.Premint, rc Context) Outcome {
	meta := p.Metadata()
	existing, err := rc.Store.GetForIDAndKind(ctx, meta.Kind, meta.ID)
	if err != nil {
		// not found (or any lookup error): nothing to compare against.
		return Accept()
	}
	if meta.Version <= existing.Metadata().Version {
		return Reject("version %d does not advance stored version %d", meta.Version, existing.Metadata().Version)
	}
	return Accept()
}

type signerIsAdminRule struct{}

func (signerIsAdminRule) Name() string { return "signer_is_admin" }

func (signerIsAdminRule) Evaluate(ctx context.Context, p premint.Premint, rc Context) Outcome {
	if rc.Admin == nil {
		// No deployment-detection wired in: treat as "not deployed yet",
		// same as the original's TODO-marked skip.
		return Accept()
	}
	meta := p.Metadata()
	if meta.CollectionAddress.IsZero() {
		// Zero collection address means "unknown": nothing to check against.
		return Accept()
	}
	admin, deployed, err := rc.Admin.ResolveAdmin(ctx, meta.ChainID, meta.CollectionAddress)
	if err != nil || !deployed {
		return Accept()
	}
	if admin != meta.Signer {
		return Reject("signer %s is not the deployed collection's admin %s", meta.Signer.Hex(), admin.Hex())
	}
	return Accept()
}

type chainSupportedRule struct{}

func (chainSupportedRule) Name() string { return "chain_supported" }

func (chainSupportedRule) Evaluate(_ context.Context, p premint.Premint, rc Context) Outcome {
	if len(rc.SupportedChains) == 0 {
		return Accept()
	}
	if !rc.SupportedChains[p.Metadata().ChainID] {
		return Reject("chain_id %d is not in the supported set", p.Metadata().ChainID)
	}
	return Accept()
}

type notAlreadySeenRule struct{}

func (notAlreadySeenRule) Name() string { return "not_already_seen" }

func (notAlreadySeenRule) Evaluate(ctx context.Context, p premint.Premint, rc Context) Outcome {
	meta := p.Metadata()
	seen, err := rc.Store.IsSeenOnChain(ctx, meta.Kind, meta.ID)
	if err != nil {
		return Accept()
	}
	if seen {
		return Reject("premint %s/%s is already marked seen on chain", meta.Kind, meta.ID)
	}
	return Accept()
}
