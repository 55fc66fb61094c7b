package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

func initCmd() *cobra.Command {
	var (
		group  string
		manual bool
	)
	cmd := &cobra.Command{
		Use:   "init <peer-id>",
		Short: "Generate identity keys and store them securely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			cfg := wire.Config
			cfg.PeerID = args[0]
			cfg.DHGroup = group
			cfg.ManualAccept = manual
			if err := cfg.Validate(); err != nil {
				return err
			}

			id, fp, err := wire.Identity.GenerateIdentity(passphrase, domain.PeerID(args[0]))
			if err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Printf("Identity created for %s.\nFingerprint: %s\nStatic key:  %s\n", id.PeerID, fp, crypto.B64(id.XPub.Slice()))
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", crypto.GroupMODP2048, "dh group (modp2048, x25519)")
	cmd.Flags().BoolVar(&manual, "manual", false, "park inbound agreements until accepted")
	return cmd
}
