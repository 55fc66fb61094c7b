package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/protocol/gka"
)

// recv: fetch queued credential messages and feed them to the engine.
func recvCmd() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and process queued credential messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			p.Shiver.AddListener(&gka.ListenerFuncs{
				Credentials: func(g domain.GroupID, peers []domain.PeerID) {
					fmt.Printf("[%s] agreement offered by peers %v\n", g, peers)
				},
				KeyReady: func(g domain.GroupID) {
					fmt.Printf("[%s] group key ready\n", g)
				},
				Error: func(ch domain.Channel, from domain.PeerID, err error) {
					fmt.Printf("[%s] %s: %v\n", ch, from, err)
				},
			})

			if watch {
				serveMetrics(cmd.Context(), p)
				return p.Inbox.Run(cmd.Context(), interval, limit)
			}
			n, err := p.Inbox.Poll(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d message(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval with --watch")
	cmd.Flags().IntVar(&limit, "limit", 0, "max messages per poll (0 = all)")
	return cmd
}
