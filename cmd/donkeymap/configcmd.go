package main

import (
	"os"

	"donkeymap/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

const redacted = "[redacted]"

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Print the effective configuration with secrets redacted",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		printer := pp.New()
		printer.SetOutput(os.Stdout)
		printer.SetColoringEnabled(false)
		printer.Println(redactConfig(cfg))

		return nil
	},
}

func redactConfig(cfg *types.Config) types.Config {
	out := *cfg
	for _, secret := range []*string{
		&out.DatabaseURL,
		&out.ServiceDatabaseURL,
		&out.CookieHashKey,
		&out.CookieBlockKey,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return out
}
