package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quizforge/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the curriculum topics available per grade",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		catalog, err := topics.Load(cfg.TopicsPath)
		if err != nil {
			return err
		}

		grade, _ := cmd.Flags().GetString("grade")
		grades := catalog.Grades()
		if grade != "" {
			grades = []string{grade}
		}

		for _, g := range grades {
			names := catalog.Topics(g)
			if names == nil {
				return fmt.Errorf("unknown grade %q, have %v", g, catalog.Grades())
			}
			fmt.Printf("Grade %s\n", g)
			for _, t := range names {
				fmt.Printf("  %s: %s\n", t, strings.Join(catalog.Subtopics(g, t), ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	topicsCmd.Flags().String("grade", "", "Show a single grade")
}
