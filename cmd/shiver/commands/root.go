package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/app"
)

var (
	home        string
	passphrase  string
	relayURL    string
	metricsAddr string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:           "shiver",
		Short:         "Group key agreement over a store-and-forward relay",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".shiver")
			}
			cfg, err := app.LoadConfig(home)
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			wire, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.shiver)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (overrides config)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while start --wait or recv --watch run")

	root.AddCommand(
		initCmd(), fingerprintCmd(), trustCmd(), peersCmd(),
		startCmd(), recvCmd(), pendingCmd(), acceptCmd(), rejectCmd(),
		statusCmd(), encryptCmd(), decryptCmd(), invalidateCmd(), demoCmd(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// openPeer loads the identity and assembles the running peer.
func openPeer() (*app.Peer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required (-p)")
	}
	return wire.Open(passphrase)
}

// serveMetrics exposes p's collectors on --metrics-addr until ctx is done.
func serveMetrics(ctx context.Context, p *app.Peer) {
	if metricsAddr == "" {
		return
	}
	go func() {
		if err := p.ServeMetrics(ctx, metricsAddr); err != nil {
			fmt.Fprintf(os.Stderr, "metrics: %v\n", err)
		}
	}()
}
