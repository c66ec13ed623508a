package main

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"mindcue/internal/config"
	"mindcue/internal/identity"
)

func newConfigCommand(wiring commandWiring) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				path, err := wiring.configPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(wiring.stdout, path)
				return nil
			},
		},
		newConfigShowCommand(wiring),
	)
	return cmd
}

func newConfigShowCommand(wiring commandWiring) *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg := config.DefaultConfig()
			if !defaults {
				var err error
				if cfg, err = wiring.loadConfig(); err != nil {
					return err
				}
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = wiring.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print built-in defaults instead")
	return cmd
}

func newLogoutCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.loadConfig()
			if err != nil {
				return err
			}
			ident, err := wiring.newIdentity(cfg)
			if err != nil {
				return err
			}
			return signOut(cmd, wiring, ident)
		},
	}
}

func signOut(cmd *cobra.Command, wiring commandWiring, ident *identity.Local) error {
	if !ident.SignedIn() {
		fmt.Fprintln(wiring.stdout, "not signed in")
		return nil
	}
	if err := ident.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(wiring.stdout, "signed out")
	return nil
}
