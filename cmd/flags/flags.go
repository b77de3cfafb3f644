// Package flags declares the CLI flags shared by the backend binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/android-provisioning-backend/api"
	"github.com/ruteri/android-provisioning-backend/common"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var StorageFlag = &cli.StringFlag{
	Name:  "storage-uri",
	Value: "file:///var/lib/provisioning/apk",
	Usage: "package storage location: file://<dir> or s3://[key:secret@]<bucket>/<prefix>",
}

var RegistryFlag = &cli.StringFlag{
	Name:  "registry-uri",
	Value: "badger:///var/lib/provisioning/registry",
	Usage: "device registry location: firebase://<host>/<root>?auth=<token> or badger://<dir>",
}

var BaseURLFlag = &cli.StringFlag{
	Name:  "base-url",
	Value: "http://localhost:8080",
	Usage: "public base URL embedded in download links and provisioning payloads",
}

var ProductionFlag = &cli.BoolFlag{
	Name:  "production",
	Value: false,
	Usage: "production deployment: upgrades the base URL to HTTPS",
}

var AdminComponentFlag = &cli.StringFlag{
	Name:  "admin-component",
	Value: "com.aoc.aoc_doapp/com.aoc.aoc_doapp.MyDeviceAdminReceiver",
	Usage: "device admin component embedded in provisioning payloads",
}

var ApkPrefixFlag = &cli.StringFlag{
	Name:  "apk-prefix",
	Value: "aoc_doapp",
	Usage: "filename prefix for uploaded packages",
}

var QRSizeFlag = &cli.IntFlag{
	Name:  "qr-size",
	Value: 512,
	Usage: "QR code image size in pixels",
}

var ApksignerPathsFlag = &cli.StringSliceFlag{
	Name:  "apksigner-path",
	Usage: "apksigner search path or glob, may be repeated; defaults to PATH plus common SDK locations",
}

var OpensslPathFlag = &cli.StringFlag{
	Name:  "openssl-path",
	Value: "openssl",
	Usage: "openssl binary for the signature-block fallback",
}

var ToolTimeoutFlag = &cli.Int64Flag{
	Name:  "tool-timeout-seconds",
	Value: 10,
	Usage: "deadline for external tool invocations",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://localhost:8080",
	Usage: "address of the provisioning backend",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
