package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [group-id]",
		Short: "Show session states",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rec, ok, err := wire.Sessions.LoadSession(domain.GroupID(args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Printf("%s %s\n", args[0], domain.StateNotStarted)
					return nil
				}
				printSession(rec)
				return nil
			}
			recs, err := wire.Sessions.ListSessions()
			if err != nil {
				return err
			}
			for _, r := range recs {
				printSession(r)
			}
			return nil
		},
	}
}

func printSession(r domain.SessionRecord) {
	at := time.Unix(r.UpdatedUTC, 0).UTC().Format(time.RFC3339)
	fmt.Printf("%s %-18s role=%-12s peers=%v updated=%s\n", r.GroupID, r.State, r.Role, r.Peers, at)
}
