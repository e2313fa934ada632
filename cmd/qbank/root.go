// qbank extracts categorized question banks from scanned exam PDFs.
package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/examforge/question-engine/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Extract categorized question banks from exam PDFs",
	Long: `qbank converts scanned exam papers into structured, categorized
question banks: it rasterizes PDF pages, reads them with a vision model,
reconstructs the exam's paper and section hierarchy, stitches questions
that span page breaks, and exports the result in several formats.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use environment variables.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(jobsCmd)
}
