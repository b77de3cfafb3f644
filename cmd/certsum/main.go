package main

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/android-provisioning-backend/apkcert"
	"github.com/ruteri/android-provisioning-backend/checksum"
	"github.com/ruteri/android-provisioning-backend/cmd/flags"
)

func main() {
	app := &cli.App{
		Name:      "certsum",
		Usage:     "Compute a package's signing-certificate checksum for Device Owner provisioning",
		ArgsUsage: "<apk-path>",
		Flags: []cli.Flag{
			flags.ApksignerPathsFlag,
			flags.OpensslPathFlag,
			flags.ToolTimeoutFlag,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogUidFlag,
			flags.LogServiceFlagFn("certsum"),
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("usage: certsum <apk-path>")
			}
			apkPath := cCtx.Args().Get(0)
			if _, err := os.Stat(apkPath); err != nil {
				return fmt.Errorf("cannot read %s: %w", apkPath, err)
			}

			logger := flags.SetupLogger(cCtx)

			extractor := apkcert.NewExtractor(apkcert.Config{
				ApksignerSearchPaths: cCtx.StringSlice(flags.ApksignerPathsFlag.Name),
				OpensslPath:          cCtx.String(flags.OpensslPathFlag.Name),
				ToolTimeout:          time.Duration(cCtx.Int64(flags.ToolTimeoutFlag.Name)) * time.Second,
			}, logger)

			der, err := extractor.ExtractCertificate(context.Background(), apkPath)
			if err != nil {
				logger.Error("Certificate extraction failed", "err", err)
				return err
			}

			cert, err := x509.ParseCertificate(der)
			if err != nil {
				return fmt.Errorf("parsing extracted certificate: %w", err)
			}

			digest := checksum.Sum(der)

			fmt.Printf("Package:     %s\n", apkPath)
			fmt.Printf("Subject:     %s\n", cert.Subject)
			fmt.Printf("Issuer:      %s\n", cert.Issuer)
			fmt.Printf("Serial:      %s\n", cert.SerialNumber)
			fmt.Printf("Valid:       %s to %s\n",
				cert.NotBefore.Format(time.RFC3339), cert.NotAfter.Format(time.RFC3339))
			fmt.Println()
			fmt.Printf("SHA-256 (hex):       %s\n", digest.Hex())
			fmt.Printf("SHA-256 (base64url): %s\n", digest.Base64URL())
			fmt.Println()
			fmt.Printf("\"android.app.extra.PROVISIONING_DEVICE_ADMIN_SIGNATURE_CHECKSUM\": %q\n", digest.Base64URL())

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
