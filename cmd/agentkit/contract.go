// cmd/agentkit/contract.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/validation"
	invokecontract "agentkit-workers/internal/workers/contract/invoke-contract"
	"agentkit-workers/pkg/registry"
)

func newContractCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Invoke smart contract methods",
	}
	cmd.AddCommand(newContractInvokeCmd(s))
	cmd.AddCommand(newContractStatusCmd(s))
	return cmd
}

func newContractInvokeCmd(s *session) *cobra.Command {
	var (
		file     string
		walletID string
		contract string
		method   string
	)
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Call a contract method from a registered wallet and wait for it to be mined",
		Long: `Reads the invocation from a YAML or JSON file with the keys walletId,
contractAddress, abi, method and args. Flags override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInvocation(file)
			if err != nil {
				return err
			}
			if walletID != "" {
				input.WalletID = walletID
			}
			if contract != "" {
				input.ContractAddress = contract
			}
			if method != "" {
				input.Method = method
			}
			if _, err := invokecontract.Validate(input); err != nil {
				return err
			}

			handler, err := s.services.InvokeContractHandler(cmd.Context())
			if err != nil {
				return err
			}
			out, err := handler.Execute(cmd.Context(), input)
			if err != nil {
				return err
			}

			inv := out.Invocation
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Invocation: %s\n", inv.ID)
			fmt.Fprintf(w, "Transaction: %s\n", inv.TxHash)
			fmt.Fprintf(w, "Status: %s (block %d)\n", inv.Status, inv.BlockNumber)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "invocation file, YAML or JSON (required)")
	cmd.Flags().StringVar(&walletID, "wallet", "", "wallet id")
	cmd.Flags().StringVar(&contract, "contract", "", "contract address")
	cmd.Flags().StringVar(&method, "method", "", "method name")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newContractStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status <invocation-id>",
		Short: "Show a recorded invocation from the ledger database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := s.services.InvocationLedger(cmd.Context())
			if err != nil {
				return err
			}
			inv, err := ledger.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Invocation: %s\n", inv.ID)
			fmt.Fprintf(w, "Wallet: %s\n", inv.WalletID)
			fmt.Fprintf(w, "Call: %s.%s\n", inv.ContractAddress, inv.Method)
			if inv.TxHash != "" {
				fmt.Fprintf(w, "Transaction: %s\n", inv.TxHash)
			}
			fmt.Fprintf(w, "Status: %s (block %d)\n", inv.Status, inv.BlockNumber)
			fmt.Fprintf(w, "Recorded: %s\n", inv.CreatedAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

// readInvocation decodes an invocation file and checks it against the job input schema.
func readInvocation(path string) (*invokecontract.Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("read invocation file: %v", err))
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse invocation file: %v", err))
	}
	if doc == nil {
		return nil, apperrors.NewInvalidInputError("invocation file is empty")
	}
	if err := validation.Validate(registry.InputSchema(invokecontract.TaskType), doc); err != nil {
		return nil, err
	}

	// Round-trip through JSON so the ABI reaches the handler in its job-variable form.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	var input invokecontract.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}
