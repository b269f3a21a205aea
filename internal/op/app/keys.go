package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/openauthlab/opd/pkg/jwtx"
)

// signingKID is the only key id the provider ever publishes. Rotation
// and multi-key support are explicitly out of scope.
const signingKID = "1"

// loadSigner reads the RSA private key and builds the RS256 signer.
// Any failure here is fatal: the process must not start serving
// without a working signing key.
func loadSigner(cfg Config) (jwtx.Signer, error) {
	if cfg.RSAPEMPath == "" {
		return nil, errors.New("OP_RSA_PEM is required")
	}

	pemKey, err := os.ReadFile(cfg.RSAPEMPath)
	if err != nil {
		return nil, fmt.Errorf("read RSA key: %w", err)
	}

	signer, err := jwtx.NewSignerRS256(signingKID, pemKey)
	if err != nil {
		return nil, fmt.Errorf("load RSA key: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return nil, err
	}

	return signer, nil
}
