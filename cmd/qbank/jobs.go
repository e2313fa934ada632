package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/examforge/question-engine/internal/store"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent processing jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs(context.Background(), jobsLimit)
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("no jobs recorded")
			return nil
		}

		for _, job := range jobs {
			count := 0
			if job.Result != nil {
				count = job.Result.QuestionCount
			}
			fmt.Printf("%s  %-16s %4d questions  %s\n",
				job.ID, job.Status, count, job.SourceFile)
		}
		return nil
	},
}

func init() {
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum jobs to list")
}
