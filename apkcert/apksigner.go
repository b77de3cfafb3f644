package apkcert

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// DefaultApksignerSearchPaths are the candidate locations for the apksigner
// binary: bare name via PATH lookup plus wildcard version-directory globs for
// the usual Android SDK installs.
var DefaultApksignerSearchPaths = []string{
	"apksigner",
	"~/Library/Android/sdk/build-tools/*/apksigner",
	"~/Android/Sdk/build-tools/*/apksigner",
	"/opt/android-sdk/build-tools/*/apksigner",
}

// ApksignerStrategy extracts the signing certificate by invoking apksigner
// from the Android SDK build-tools, the most reliable method when available.
type ApksignerStrategy struct {
	searchPaths []string
	timeout     time.Duration
	log         *slog.Logger
}

// NewApksignerStrategy creates the strategy. An empty search path list falls
// back to DefaultApksignerSearchPaths.
func NewApksignerStrategy(searchPaths []string, timeout time.Duration, log *slog.Logger) *ApksignerStrategy {
	if len(searchPaths) == 0 {
		searchPaths = DefaultApksignerSearchPaths
	}
	return &ApksignerStrategy{searchPaths: searchPaths, timeout: timeout, log: log}
}

// Name identifies the strategy.
func (s *ApksignerStrategy) Name() string {
	return "apksigner"
}

// Extract runs `apksigner verify --print-certs-pem` and returns the DER bytes
// of the first certificate block printed to stdout.
func (s *ApksignerStrategy) Extract(ctx context.Context, apkPath string) ([]byte, error) {
	tool, err := s.locate()
	if err != nil {
		return nil, &interfaces.ExtractionError{Tool: "apksigner", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, "verify", "--print-certs-pem", apkPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &interfaces.ExtractionError{Tool: tool, Output: stderr.String(), Err: err}
	}

	der, err := firstCertificateDER(stdout.Bytes())
	if err != nil {
		return nil, &interfaces.ExtractionError{Tool: tool, Output: stdout.String(), Err: err}
	}
	return der, nil
}

// locate resolves the apksigner binary from the configured search paths.
// Glob entries resolve to their lexically greatest match so the latest
// build-tools version wins.
func (s *ApksignerStrategy) locate() (string, error) {
	for _, candidate := range s.searchPaths {
		candidate = expandHome(candidate)

		if strings.Contains(candidate, "*") {
			matches, err := filepath.Glob(candidate)
			if err != nil || len(matches) == 0 {
				continue
			}
			sort.Strings(matches)
			return matches[len(matches)-1], nil
		}

		if filepath.Base(candidate) == candidate {
			if path, err := exec.LookPath(candidate); err == nil {
				return path, nil
			}
			continue
		}

		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
