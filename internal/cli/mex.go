package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewMExCmd создаёт группу команд для управления реестром флота.
func NewMExCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mex",
		Short: "Manage the fleet registry",
	}

	cmd.AddCommand(
		newMExListCmd(clientFn, outputFn),
		newMExShowCmd(clientFn, outputFn),
		newMExRegisterCmd(clientFn, outputFn),
		newMExStatusCmd(clientFn, outputFn),
		newMExDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newMExListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fleet executors",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			fleet, err := client.ListMExs()
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "JOB", "POSE", "UPDATED"}
			rows := make([][]string, len(fleet))
			for i := range fleet {
				rows[i] = mexRow(&fleet[i])
			}

			out.Print(headers, rows, fleet)
			return nil
		},
	}
}

func newMExShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show executor details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			mex, err := client.GetMEx(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "STATUS", "JOB", "POSE", "UPDATED"},
				[][]string{mexRow(mex)},
				mex,
			)
			return nil
		},
	}
}

func newMExRegisterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var x, y, theta float64

	cmd := &cobra.Command{
		Use:   "register ID",
		Short: "Register an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			mex, err := client.RegisterMEx(RegisterMExRequest{
				ID:   args[0],
				Pose: Pose{X: x, Y: y, Theta: theta},
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Executor registered: %s", mex.ID))
			out.Print(
				[]string{"ID", "STATUS", "JOB", "POSE", "UPDATED"},
				[][]string{mexRow(mex)},
				mex,
			)
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "Initial pose X")
	cmd.Flags().Float64Var(&y, "y", 0, "Initial pose Y")
	cmd.Flags().Float64Var(&theta, "theta", 0, "Initial pose theta (radians)")

	return cmd
}

func newMExStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change executor status (e.g. CHARGING, UNAVAILABLE, STANDBY)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			mex, err := client.ChangeMExStatus(args[0], strings.ToUpper(args[1]))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Executor %s is now %s", mex.ID, mex.Status))
			out.Print(
				[]string{"ID", "STATUS", "JOB", "POSE", "UPDATED"},
				[][]string{mexRow(mex)},
				mex,
			)
			return nil
		},
	}
}

func newMExDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove an executor from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteMEx(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Executor deleted: %s", args[0]))
			return nil
		},
	}
}

func mexRow(m *MExResponse) []string {
	pose := fmt.Sprintf("(%s, %s, %s)",
		strconv.FormatFloat(m.Pose.X, 'f', 2, 64),
		strconv.FormatFloat(m.Pose.Y, 'f', 2, 64),
		strconv.FormatFloat(m.Pose.Theta, 'f', 2, 64),
	)
	return []string{m.ID, m.Status, m.JobID, pose, m.UpdatedAt}
}
