package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/services/identity"
)

// trust <peer> <static-key>: record a peer's key. Peers stay unverified until
// --verified is given, after the fingerprint was compared out of band.
func trustCmd() *cobra.Command {
	var verified bool
	cmd := &cobra.Command{
		Use:   "trust <peer> <static-key>",
		Short: "Record a peer's static key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.ParseX25519Public(args[1])
			if err != nil {
				return err
			}

			rec := domain.PeerRecord{PeerID: domain.PeerID(args[0]), StaticKey: key, Verified: verified}
			if err := wire.Trust.SavePeer(rec); err != nil {
				return err
			}
			fmt.Printf("Saved %s (fingerprint %s, verified=%t)\n", rec.PeerID, identity.Fingerprint(key), verified)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verified, "verified", false, "mark the peer verified")
	return cmd
}

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List known peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := wire.Trust.ListPeers()
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%-20s %s verified=%t\n", r.PeerID, identity.Fingerprint(r.StaticKey), r.Verified)
			}
			return nil
		},
	}
}
