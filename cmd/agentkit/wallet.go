// cmd/agentkit/wallet.go
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"agentkit-workers/internal/models"
	createwallet "agentkit-workers/internal/workers/wallet/create-wallet"
	requestfaucet "agentkit-workers/internal/workers/wallet/request-faucet"
)

func newWalletCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create and fund chain wallets",
	}
	cmd.AddCommand(newWalletCreateCmd(s))
	cmd.AddCommand(newWalletShowCmd(s))
	cmd.AddCommand(newWalletFaucetCmd(s))
	return cmd
}

func newWalletCreateCmd(s *session) *cobra.Command {
	var input createwallet.Input
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet, register it and save its seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := s.services.CreateWalletHandler(cmd.Context(), input.RequestFaucet)
			if err != nil {
				return err
			}
			out, err := handler.Execute(cmd.Context(), &input)
			if out != nil {
				w := cmd.OutOrStdout()
				printWallet(w, out.Wallet)
				fmt.Fprintf(w, "Seed saved to %s\n", out.SeedFile)
				if out.Faucet != nil {
					printFaucet(w, *out.Faucet)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&input.NetworkID, "network", "", "network id (default from cdp.network_id)")
	cmd.Flags().BoolVar(&input.EncryptSeed, "encrypt", false, "encrypt the seed with CDP_SEED_PASSPHRASE")
	cmd.Flags().BoolVar(&input.RequestFaucet, "faucet", false, "request faucet funds for the new wallet")
	return cmd
}

func newWalletShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show [wallet-id]",
		Short: "Show one registered wallet, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.services.WalletStore(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				wallet, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printWallet(cmd.OutOrStdout(), wallet.WalletRecord)
				return nil
			}

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No wallets registered.")
				return nil
			}
			for _, rec := range records {
				printWallet(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
}

func newWalletFaucetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "faucet <wallet-id>",
		Short: "Request testnet funds for a registered wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := s.services.RequestFaucetHandler(cmd.Context())
			if err != nil {
				return err
			}
			out, err := handler.Execute(cmd.Context(), &requestfaucet.Input{WalletID: args[0]})
			if err != nil {
				return err
			}
			printFaucet(cmd.OutOrStdout(), out.Faucet)
			return nil
		},
	}
}

func printWallet(w io.Writer, rec models.WalletRecord) {
	fmt.Fprintf(w, "Wallet ID: %s\n", rec.ID)
	fmt.Fprintf(w, "Address: %s\n", rec.Address)
	fmt.Fprintf(w, "Network: %s\n", rec.NetworkID)
	fmt.Fprintf(w, "Created: %s\n", rec.CreatedAt.Format(time.RFC3339))
}

func printFaucet(w io.Writer, res models.FaucetResult) {
	fmt.Fprintf(w, "Faucet transaction: %s\n", res.TransactionHash)
	if res.TransactionLink != "" {
		fmt.Fprintf(w, "Explorer: %s\n", res.TransactionLink)
	}
}
