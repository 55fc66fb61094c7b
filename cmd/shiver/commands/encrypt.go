package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// encrypt <group-id> <message>: prints the ciphertext as base64.
func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <group-id> <message>",
		Short: "Encrypt a message with a group key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			ct, err := p.Shiver.Encrypt(domain.GroupID(args[0]), []byte(args[1]))
			if err != nil {
				return err
			}
			fmt.Println(crypto.B64(ct))
			return nil
		},
	}
}

func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <group-id> <ciphertext>",
		Short: "Decrypt a base64 message with a group key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			ct, err := crypto.FromB64(args[1])
			if err != nil {
				return fmt.Errorf("decoding ciphertext: %w", err)
			}
			pt, err := p.Shiver.Decrypt(domain.GroupID(args[0]), ct)
			if err != nil {
				return err
			}
			fmt.Println(string(pt))
			return nil
		},
	}
}

func invalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <group-id>",
		Short: "Cancel a session and wipe its keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPeer()
			if err != nil {
				return err
			}
			if err := p.Shiver.Invalidate(domain.GroupID(args[0])); err != nil {
				return err
			}
			fmt.Println("invalidated")
			return nil
		},
	}
}
