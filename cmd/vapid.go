package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaswatch-project/gaswatch/internal/push"
)

func NewVapidCmd() *cobra.Command {
	vapidCmd := &cobra.Command{
		Use:   "vapid",
		Short: "Command tree related to the VAPID keys used to sign push messages",
	}

	var subscriber string

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates a new VAPID key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials, err := push.GenerateCredentials(subscriber)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GASWATCH_VAPID_PUBLIC_KEY=%s\n", credentials.PublicKey)
			fmt.Fprintf(out, "GASWATCH_VAPID_PRIVATE_KEY=%s\n", credentials.PrivateKey)
			if credentials.Subscriber != "" {
				fmt.Fprintf(out, "GASWATCH_VAPID_SUBSCRIBER=%s\n", credentials.Subscriber)
			}

			return nil
		},
	}
	generateCmd.Flags().StringVar(&subscriber, "subscriber", "", "The e-mail contact to pair with the keys")

	vapidCmd.AddCommand(generateCmd)

	return vapidCmd
}
