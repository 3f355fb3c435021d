package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Коды ввода погрузки. Дублируются из internal/confirm: CLI не
// импортирует внутренние пакеты системы.
const (
	loadCodeCancelled = 2
	loadCodeSucceeded = 3
	loadCodeAborted   = 4
)

// NewLoadCmd создаёт группу команд для подтверждения погрузки.
func NewLoadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Report load/unload completion for an executor",
	}

	cmd.AddCommand(
		newLoadConfirmCmd(clientFn, outputFn),
		newLoadAbortCmd(clientFn, outputFn),
		newLoadCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newLoadConfirmCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm MEX_ID",
		Short: "Confirm that loading finished successfully",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.PostLoadInput(args[0], loadCodeSucceeded); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Load confirmed for %s", args[0]))
			return nil
		},
	}
}

func newLoadAbortCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "abort MEX_ID",
		Short: "Report that loading failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.PostLoadInput(args[0], loadCodeAborted); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Load aborted for %s", args[0]))
			return nil
		},
	}
}

func newLoadCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel MEX_ID",
		Short: "Cancel the pending load step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.PostLoadInput(args[0], loadCodeCancelled); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Load cancelled for %s", args[0]))
			return nil
		},
	}
}
