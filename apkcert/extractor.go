package apkcert

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultToolTimeout bounds every external tool invocation so a misbehaving
// tool cannot hang a request indefinitely.
const DefaultToolTimeout = 10 * time.Second

// Strategy obtains the DER bytes of a package's signing certificate through
// one external toolchain. Strategies return an *interfaces.ExtractionError
// carrying the tool's diagnostic output on failure.
type Strategy interface {
	// Name identifies the strategy in logs and aggregated errors.
	Name() string

	// Extract returns the DER-encoded signing certificate of the package.
	Extract(ctx context.Context, apkPath string) ([]byte, error)
}

// Config configures tool discovery and invocation for the default strategies.
type Config struct {
	// ApksignerSearchPaths lists candidate locations for the apksigner
	// binary. Entries may contain glob patterns; the lexically greatest match
	// wins (latest build-tools). An empty list uses DefaultApksignerSearchPaths.
	ApksignerSearchPaths []string

	// OpensslPath is the openssl binary used by the signature-block
	// strategy. Defaults to "openssl" resolved via PATH.
	OpensslPath string

	// ToolTimeout bounds each tool invocation. Defaults to DefaultToolTimeout.
	ToolTimeout time.Duration
}

// Extractor tries an ordered list of extraction strategies, returning the
// first success and aggregating every diagnostic when all fail.
type Extractor struct {
	strategies []Strategy
	log        *slog.Logger
}

// NewExtractor creates an extractor with the default strategy order:
// apksigner first (most reliable), then the zip signature block converted
// through openssl.
func NewExtractor(cfg Config, log *slog.Logger) *Extractor {
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}
	return &Extractor{
		strategies: []Strategy{
			NewApksignerStrategy(cfg.ApksignerSearchPaths, cfg.ToolTimeout, log),
			NewSignatureBlockStrategy(cfg.OpensslPath, cfg.ToolTimeout, log),
		},
		log: log,
	}
}

// NewChain creates an extractor over an explicit strategy list, tried in order.
func NewChain(log *slog.Logger, strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies, log: log}
}

// ExtractCertificate returns the DER-encoded signing certificate of the
// package at apkPath. Strategies are tried in priority order; when every
// strategy fails the returned error concatenates all diagnostics so an
// operator can see which external tooling is missing.
func (e *Extractor) ExtractCertificate(ctx context.Context, apkPath string) ([]byte, error) {
	var errs []error

	for _, strategy := range e.strategies {
		der, err := strategy.Extract(ctx, apkPath)
		if err == nil {
			e.log.Debug("Extracted signing certificate",
				slog.String("strategy", strategy.Name()),
				slog.String("apk", apkPath),
				slog.Int("der_size", len(der)))
			return der, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
		e.log.Debug("Certificate extraction strategy failed",
			slog.String("strategy", strategy.Name()),
			slog.String("apk", apkPath),
			"err", err)
	}

	e.log.Error("All certificate extraction strategies failed",
		slog.String("apk", apkPath),
		slog.Int("failed_strategies", len(errs)))

	return nil, fmt.Errorf("could not extract signing certificate from %s: %w", apkPath, errors.Join(errs...))
}

// firstCertificateDER parses the first PEM CERTIFICATE block out of tool
// output and returns its DER bytes, verifying they parse as an X.509
// certificate.
func firstCertificateDER(output []byte) ([]byte, error) {
	rest := output
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("no CERTIFICATE block in tool output")
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("parsing certificate: %w", err)
		}
		return block.Bytes, nil
	}
}
