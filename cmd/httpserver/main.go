package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/android-provisioning-backend/api/apkhandler"
	"github.com/ruteri/android-provisioning-backend/api/devicehandler"
	"github.com/ruteri/android-provisioning-backend/api/servers"
	"github.com/ruteri/android-provisioning-backend/cmd/flags"
	"github.com/ruteri/android-provisioning-backend/provision"
	"github.com/ruteri/android-provisioning-backend/registry"
	"github.com/ruteri/android-provisioning-backend/storage"
)

var serverFlags []cli.Flag = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.StorageFlag,
	flags.RegistryFlag,
	flags.BaseURLFlag,
	flags.ProductionFlag,
	flags.AdminComponentFlag,
	flags.ApkPrefixFlag,
	flags.QRSizeFlag,
	flags.LogServiceFlagFn("provisioning-server"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "provisioning-server",
		Usage: "Serve the Android device management and provisioning API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			storageURI := cCtx.String(flags.StorageFlag.Name)
			registryURI := cCtx.String(flags.RegistryFlag.Name)
			baseURL := cCtx.String(flags.BaseURLFlag.Name)
			production := cCtx.Bool(flags.ProductionFlag.Name)
			adminComponent := cCtx.String(flags.AdminComponentFlag.Name)
			apkPrefix := cCtx.String(flags.ApkPrefixFlag.Name)
			qrSize := cCtx.Int(flags.QRSizeFlag.Name)

			logger := flags.SetupLogger(cCtx)

			storageFactory := storage.NewStorageBackendFactory(logger)
			backend, err := storageFactory.StorageBackendFor(storageURI)
			if err != nil {
				logger.Error("Failed to create storage backend", "err", err)
				return err
			}
			logger.Info("Package storage ready", "backend", backend.Name(), "location", backend.LocationURI())

			reg, err := registry.RegistryFor(registryURI, logger)
			if err != nil {
				logger.Error("Failed to create device registry", "err", err)
				return err
			}
			if closer, ok := reg.(io.Closer); ok {
				defer closer.Close()
			}

			locator := provision.NewLocator(backend, baseURL, production, logger)
			overrides := provision.NewOverrideStore(backend, logger)
			builder := provision.NewBuilder(backend, locator, overrides, adminComponent, logger)

			qrCfg := provision.DefaultQRConfig()
			if qrSize > 0 {
				qrCfg.Size = qrSize
			}

			deviceHandler := devicehandler.NewHandler(reg, logger)
			apkHandler := apkhandler.NewHandler(backend, locator, overrides, builder, qrCfg, apkPrefix, logger)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server, err := servers.New(cfg, deviceHandler, apkHandler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
