package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// startCmd starts a key agreement with the given peers. With --wait it keeps
// polling the relay until the group key is stored, restarting stalled runs.
func startCmd() *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "start <peer>...",
		Short: "Start a group key agreement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			peers := make([]domain.PeerID, len(args))
			for i, a := range args {
				peers[i] = domain.PeerID(a)
			}

			if !wait {
				gid, err := p.Shiver.StartKeyAgreement(cmd.Context(), peers)
				if err != nil {
					return fmt.Errorf("starting key agreement: %w", err)
				}
				fmt.Printf("Started %s\n", gid)
				return nil
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			serveMetrics(ctx, p)
			go func() { _ = p.Inbox.Run(ctx, interval, 0) }()

			gid, err := p.Supervisor.Establish(ctx, peers)
			if err != nil {
				return err
			}
			fmt.Printf("Group key ready for %s\n", gid)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the group key is ready")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval with --wait")
	return cmd
}
