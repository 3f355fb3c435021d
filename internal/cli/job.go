package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для просмотра jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect jobs",
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(status)
			if err != nil {
				return err
			}

			headers := []string{"ID", "KEYWORD", "PRIORITY", "STATUS", "MEX", "TASKS"}
			rows := make([][]string, len(jobs))
			for i := range jobs {
				rows[i] = jobRow(&jobs[i])
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, ASSIGNED, ACTIVE, SUCCEEDED, ABORTED)")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "KEYWORD", "PRIORITY", "STATUS", "MEX", "TASKS"},
				[][]string{jobRow(job)},
				job,
			)
			return nil
		},
	}
}

func jobRow(j *JobResponse) []string {
	tasks := strconv.Itoa(j.Tasks)
	if j.CurrentTask != nil {
		tasks = strconv.Itoa(*j.CurrentTask+1) + "/" + tasks
	}
	return []string{j.ID, j.Keyword, j.Priority, j.Status, j.MExID, tasks}
}
