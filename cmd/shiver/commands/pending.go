package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List agreements waiting for acceptance",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := wire.Pending.ListPending()
			if err != nil {
				return err
			}
			for _, m := range list {
				at := time.Unix(m.ReceivedUTC, 0).UTC().Format(time.RFC3339)
				fmt.Printf("%s from=%s peers=%v received=%s\n", m.GroupID, m.From, m.Peers, at)
			}
			return nil
		},
	}
}

func acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <group-id>",
		Short: "Accept a pending agreement and continue the cascade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			gid := domain.GroupID(args[0])
			if err := p.Shiver.AcceptPending(cmd.Context(), gid); err != nil {
				return err
			}
			st, err := p.Shiver.State(gid)
			if err != nil {
				return err
			}
			fmt.Printf("Accepted %s (%s)\n", gid, st)
			return nil
		},
	}
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <group-id>",
		Short: "Drop a pending agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			if err := p.Shiver.RejectPending(domain.GroupID(args[0])); err != nil {
				return err
			}
			fmt.Println("rejected")
			return nil
		},
	}
}
