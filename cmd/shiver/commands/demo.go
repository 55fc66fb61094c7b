package commands

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/app"
	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// demo runs one agreement between in-process peers and round-trips a message
// through the resulting key.
func demoCmd() *cobra.Command {
	var (
		peers   []string
		group   string
		message string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run an agreement between in-process peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := crypto.GroupByName(group, nil)
			if err != nil {
				return err
			}
			ids := make([]domain.PeerID, len(peers))
			for i, p := range peers {
				ids[i] = domain.PeerID(p)
			}
			log := logrus.NewEntry(wire.Config.Logger())
			c, err := app.NewCluster(g, nil, log, ids...)
			if err != nil {
				return err
			}

			start := time.Now()
			first, last := c.Peers[ids[0]], c.Peers[ids[len(ids)-1]]
			gid, err := first.Shiver.StartKeyAgreement(cmd.Context(), ids)
			if err != nil {
				return err
			}
			n := c.Pump(cmd.Context())
			fmt.Printf("%s: %d peers, %d messages, %s (%s)\n", gid, len(ids), n, time.Since(start).Round(time.Millisecond), g.Name())

			for _, id := range ids {
				if !c.Peers[id].Shiver.HasKey(gid) {
					return fmt.Errorf("%s has no group key", id)
				}
			}
			ct, err := first.Shiver.Encrypt(gid, []byte(message))
			if err != nil {
				return err
			}
			pt, err := last.Shiver.Decrypt(gid, ct)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s: %q\n", ids[0], ids[len(ids)-1], pt)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&peers, "peers", []string{"alice", "bob", "carol"}, "peer ids, initiator first")
	cmd.Flags().StringVar(&group, "group", crypto.GroupX25519, "dh group (modp2048, x25519)")
	cmd.Flags().StringVarP(&message, "message", "m", "hello group", "message to round-trip")
	return cmd
}
