package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quizforge/internal/quiz"
	"quizforge/internal/store"
)

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Browse and re-export saved quizzes",
}

var activitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		activities, err := s.ActivityRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		if len(activities) == 0 {
			fmt.Println("No saved quizzes yet.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %s\n", "ID", "Created", "Title")
		fmt.Println(strings.Repeat("─", 80))
		for _, a := range activities {
			fmt.Printf("%-36s  %-19s  %s\n",
				a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Title)
		}
		return nil
	},
}

var activitiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, a, err := loadActivityQuiz(cmd, s, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", a.Title)
		if a.Description != "" {
			fmt.Println(a.Description)
		}
		fmt.Printf("Created: %s\n\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		for i, question := range q.Questions {
			fmt.Printf("%d. [%s] %s\n", i+1, question.Type, question.Question)
			for _, o := range question.Options {
				fmt.Printf("     - %s\n", o)
			}
			fmt.Printf("   Answer: %s\n", question.Answer)
		}
		return nil
	},
}

var activitiesExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Re-export a saved quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, _, err := loadActivityQuiz(cmd, s, args[0])
		if err != nil {
			return err
		}
		return exportQuiz(cmd, cfg.ActivitiesDir, q)
	},
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// loadActivityQuiz rehydrates a stored activity into a quiz.
func loadActivityQuiz(cmd *cobra.Command, s *store.Store, id string) (*quiz.Quiz, *store.Activity, error) {
	a, err := s.ActivityRepo().Get(cmd.Context(), id)
	if err != nil {
		return nil, nil, fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return nil, nil, fmt.Errorf("activity %s not found", id)
	}

	q := &quiz.Quiz{Title: a.Title, Description: a.Description}
	if err := json.Unmarshal(a.Settings, &q.Settings); err != nil {
		return nil, nil, fmt.Errorf("decode activity settings: %w", err)
	}
	if err := json.Unmarshal(a.Questions, &q.Questions); err != nil {
		return nil, nil, fmt.Errorf("decode activity questions: %w", err)
	}
	return q, a, nil
}

func init() {
	activitiesListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")
	activitiesExportCmd.Flags().StringSlice("export", []string{"json"}, "Export formats: json, csv, document, gform")
	activitiesExportCmd.Flags().String("out", "", "Output directory (defaults to the configured activities dir)")
	activitiesExportCmd.Flags().String("credentials", "credentials.json", "Google OAuth credentials file (gform export)")
	activitiesExportCmd.Flags().String("token", "token.json", "Google OAuth token cache (gform export)")

	activitiesCmd.AddCommand(activitiesListCmd)
	activitiesCmd.AddCommand(activitiesShowCmd)
	activitiesCmd.AddCommand(activitiesExportCmd)
}
