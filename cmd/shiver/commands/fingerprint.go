package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/services/identity"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.Identity.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Peer:        %s\n", id.PeerID)
			fmt.Printf("Fingerprint: %s\n", identity.Fingerprint(id.XPub))
			fmt.Printf("Static key:  %s\n", crypto.B64(id.XPub.Slice()))
			return nil
		},
	}
	return cmd
}
