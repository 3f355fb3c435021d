// Flotilla CLI — инструмент командной строки для управления
// заказами, jobs, флотом и расписаниями через HTTP API.
//
// Использование:
//
//	flotilla [--api-url URL] [--registry-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	order     Подача заказов
//	job       Просмотр jobs
//	mex       Управление реестром флота
//	load      Подтверждение погрузки
//	schedule  Управление schedules
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Flotilla/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var registryURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flotilla",
		Short:         "Flotilla CLI — mobile fleet management tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Dispatcher API URL")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry-url", "http://localhost:8081", "Fleet registry (sentinel) URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, registryURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewOrderCmd(clientFn, outputFn),
		cli.NewJobCmd(clientFn, outputFn),
		cli.NewMExCmd(clientFn, outputFn),
		cli.NewLoadCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
