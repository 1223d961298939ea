package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:          "researcher",
		Short:        "Search the web, summarize the findings and keep the reports",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.json)")

	root.AddCommand(serveCMD(&cfgPath), migrateCMD(&cfgPath), askCMD(&cfgPath), mcpCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
