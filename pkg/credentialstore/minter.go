package credentialstore

import (
	"context"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// Minter mints a fresh CredentialBlob by authenticating to Apple as the
// device owner. Minting itself reads the host keychain and undocumented
// private frameworks and is explicitly out of scope of this module; callers
// supply a platform-specific implementation.
type Minter interface {
	Mint(ctx context.Context) (*model.CredentialBlob, error)
}

// UnsupportedMinter is the zero-value Minter: it always fails. It lets
// refresh-credentials build and run its flag parsing and configuration
// without a real minting host; because Mint fails, the command exits before
// the store PUT.
type UnsupportedMinter struct{}

// Mint always returns an error; see Minter's doc comment.
func (UnsupportedMinter) Mint(ctx context.Context) (*model.CredentialBlob, error) {
	return nil, helpers.ErrCredentialsUnavailable.WithDetails("credential minting is not implemented on this host")
}
