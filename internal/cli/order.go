package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewOrderCmd создаёт группу команд для подачи заказов.
func NewOrderCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Submit orders to the dispatcher",
	}

	cmd.AddCommand(
		newOrderSubmitCmd(clientFn, outputFn),
		newOrderLocationsCmd(clientFn, outputFn),
	)

	return cmd
}

func newOrderSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var priority string
	var mexID string

	cmd := &cobra.Command{
		Use:   "submit KEYWORD [ARGS...]",
		Short: "Submit an order",
		Long: `Submit an order to the dispatcher.

Examples:
  flotilla order submit MOVE charging
  flotilla order submit TRANSPORT storage assembly --priority HIGH
  flotilla order submit MOVE dock01 --mex rdg02`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateOrderRequest{
				Keyword:  strings.ToUpper(args[0]),
				Args:     args[1:],
				Priority: priority,
				MExID:    mexID,
			}

			job, err := client.SubmitOrder(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Order accepted: job %s", job.ID))
			out.Print(
				[]string{"ID", "KEYWORD", "PRIORITY", "STATUS", "MEX", "TASKS"},
				[][]string{jobRow(job)},
				job,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Order priority (LOW, MEDIUM, HIGH, CRITICAL)")
	cmd.Flags().StringVar(&mexID, "mex", "", "Request a specific executor")

	return cmd
}

func newOrderLocationsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List known map locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			locations, err := client.ListLocations()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "X", "Y", "THETA"}
			rows := make([][]string, len(locations))
			for i, l := range locations {
				rows[i] = []string{
					l.Name,
					strconv.FormatFloat(l.X, 'f', 2, 64),
					strconv.FormatFloat(l.Y, 'f', 2, 64),
					strconv.FormatFloat(l.Theta, 'f', 2, 64),
				}
			}

			out.Print(headers, rows, locations)
			return nil
		},
	}
}
