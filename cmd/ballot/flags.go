package main

import (
	"fmt"

	"github.com/calehh/ballot-app/address"
	"github.com/spf13/cobra"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "ballot node rpc url")
}

func submitFlags(cmd *cobra.Command, args *submitArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().StringVarP(&args.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().Int64VarP(&args.Nonce, "nonce", "n", -1, "account nonce, queried from the node when negative")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}

func parseAddressArg(name string, s string) (address.Address, error) {
	a, err := address.ParseAddress(s)
	if err != nil {
		return a, fmt.Errorf("%s: %w", name, err)
	}
	return a, nil
}
