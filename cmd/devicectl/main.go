package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/android-provisioning-backend/api/clients"
	"github.com/ruteri/android-provisioning-backend/cmd/flags"
)

func client(cCtx *cli.Context) *clients.DashboardClient {
	return &clients.DashboardClient{ServerAddr: cCtx.String(flags.ServerAddrFlag.Name)}
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func requireArgs(cCtx *cli.Context, n int, usage string) error {
	if cCtx.NArg() != n {
		return errors.New("usage: " + usage)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "devicectl",
		Usage: "Operate the Android device management backend",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "devices",
				Usage: "List every enrolled device",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).Devices()
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "status",
				Usage:     "Show one device's status",
				ArgsUsage: "<device-id>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 1, "devicectl status <device-id>"); err != nil {
						return err
					}
					resp, err := client(cCtx).Status(cCtx.Args().Get(0))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "lock",
				Usage:     "Lock a device",
				ArgsUsage: "<device-id>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 1, "devicectl lock <device-id>"); err != nil {
						return err
					}
					resp, err := client(cCtx).SendCommand(cCtx.Args().Get(0), "lock")
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "unlock",
				Usage:     "Unlock a device",
				ArgsUsage: "<device-id>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 1, "devicectl unlock <device-id>"); err != nil {
						return err
					}
					resp, err := client(cCtx).SendCommand(cCtx.Args().Get(0), "unlock")
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "wallpaper",
				Usage:     "Set a device's wallpaper from a URL",
				ArgsUsage: "<device-id> <image-url>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 2, "devicectl wallpaper <device-id> <image-url>"); err != nil {
						return err
					}
					resp, err := client(cCtx).SendCommand(cCtx.Args().Get(0), "wallpaper:"+cCtx.Args().Get(1))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "bulk",
				Usage:     "Relay a command to several devices",
				ArgsUsage: "<command> <device-id>...",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() < 2 {
						return errors.New("usage: devicectl bulk <command> <device-id>...")
					}
					resp, err := client(cCtx).BulkCommand(cCtx.Args().Get(0), cCtx.Args().Slice()[1:])
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a device's registry record",
				ArgsUsage: "<device-id>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 1, "devicectl delete <device-id>"); err != nil {
						return err
					}
					resp, err := client(cCtx).DeleteDevice(cCtx.Args().Get(0))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "stats",
				Usage: "Show registry statistics",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).Stats()
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a package, optionally with a checksum override",
				ArgsUsage: "<apk-path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "checksum",
						Usage: "signature checksum override: hex, base64 or base64url",
					},
				},
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 1, "devicectl upload <apk-path>"); err != nil {
						return err
					}
					resp, err := client(cCtx).Upload(cCtx.Args().Get(0), cCtx.String("checksum"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "provision",
				Usage: "Print the Device Owner provisioning payload",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).Provision()
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "qr",
				Usage: "Print the provisioning QR code as a data URI",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).ProvisionQR()
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "verify",
				Usage: "Print the current package's checksum in every encoding",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).VerifyChecksum()
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "set-checksum",
				Usage:     "Store a checksum override for a package",
				ArgsUsage: "<filename> <checksum>",
				Action: func(cCtx *cli.Context) error {
					if err := requireArgs(cCtx, 2, "devicectl set-checksum <filename> <checksum>"); err != nil {
						return err
					}
					resp, err := client(cCtx).SetChecksum(cCtx.Args().Get(0), cCtx.Args().Get(1))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
