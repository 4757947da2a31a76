package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quizforge/internal/export"
	"quizforge/internal/llm"
	"quizforge/internal/logging"
	"quizforge/internal/pipeline"
	"quizforge/internal/quiz"
	"quizforge/internal/store"
	"quizforge/internal/topics"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz",
	Long: `Generate runs the full pipeline: the generator model drafts the quiz,
the critic model reviews it in two passes, rejected questions are rewritten,
and the result is normalized, saved, and exported.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("grade", "7", "Target grade level")
	generateCmd.Flags().StringArray("topic", nil, `Topic selection, repeatable: "Geometry" or "Geometry:Triangles,Polygons"`)
	generateCmd.Flags().String("difficulty", "Medium", "Difficulty: Easy, Medium, or Hard")
	generateCmd.Flags().StringArray("type", []string{"MCQ=5"}, `Question counts, repeatable: "MCQ=5", "True/False=3"`)
	generateCmd.Flags().Int("count", 0, "Total question cap (defaults to the sum of --type counts)")
	generateCmd.Flags().String("title", "", "Quiz title (defaults to the model's title)")
	generateCmd.Flags().String("description", "", "Quiz description")
	generateCmd.Flags().StringSlice("export", []string{"json"}, "Export formats: json, csv, document, gform")
	generateCmd.Flags().String("out", "", "Output directory (defaults to the configured activities dir)")
	generateCmd.Flags().String("credentials", "credentials.json", "Google OAuth credentials file (gform export)")
	generateCmd.Flags().String("token", "token.json", "Google OAuth token cache (gform export)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.Logging)
	defer log.Sync()

	settings, err := settingsFromFlags(cmd, cfg.TopicsPath)
	if err != nil {
		return err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	providers, err := llm.NewProviders(cfg, s.EventRepo(), log)
	if err != nil {
		return err
	}

	pipe := pipeline.New(*providers, cfg.Pipeline, log)
	pipe.OnStage = func(stage pipeline.Stage) {
		fmt.Printf("... %s\n", stage)
	}

	worker := pipeline.NewWorker(pipe, 1, log)
	worker.Start(ctx)
	defer worker.Stop()

	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	job, err := worker.Submit(pipeline.JobSpec{
		Title:       title,
		Description: description,
		Settings:    settings,
	})
	if err != nil {
		return err
	}

	res := <-job.Result
	if res.Err != nil {
		return res.Err
	}
	q := res.Quiz

	fmt.Printf("\nGenerated %q with %d questions.\n", q.Title, len(q.Questions))

	activityID, err := saveActivity(cmd, s, q)
	if err != nil {
		return err
	}
	fmt.Printf("Saved activity %s\n", activityID)

	return exportQuiz(cmd, cfg.ActivitiesDir, q)
}

// settingsFromFlags builds and validates the job settings against the
// curriculum catalog.
func settingsFromFlags(cmd *cobra.Command, topicsPath string) (quiz.Settings, error) {
	grade, _ := cmd.Flags().GetString("grade")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	topicFlags, _ := cmd.Flags().GetStringArray("topic")
	typeFlags, _ := cmd.Flags().GetStringArray("type")

	catalog, err := topics.Load(topicsPath)
	if err != nil {
		return quiz.Settings{}, err
	}

	selection := make(map[string][]string)
	for _, t := range topicFlags {
		name, subs, found := strings.Cut(t, ":")
		name = strings.TrimSpace(name)
		if !found {
			selection[name] = nil
			continue
		}
		for _, sub := range strings.Split(subs, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				selection[name] = append(selection[name], sub)
			}
		}
	}
	if len(selection) == 0 {
		// Whole-grade quiz when no topic is given.
		for _, t := range catalog.Topics(grade) {
			selection[t] = nil
		}
	}
	if err := catalog.Validate(grade, selection); err != nil {
		return quiz.Settings{}, err
	}

	counts := make(map[quiz.QuestionType]int)
	for _, tf := range typeFlags {
		name, countStr, found := strings.Cut(tf, "=")
		if !found {
			return quiz.Settings{}, fmt.Errorf("invalid --type %q, want NAME=COUNT", tf)
		}
		n, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || n < 1 {
			return quiz.Settings{}, fmt.Errorf("invalid count in --type %q", tf)
		}
		counts[quiz.CanonicalType(strings.TrimSpace(name))] += n
	}

	count, _ := cmd.Flags().GetInt("count")
	if count < 0 {
		return quiz.Settings{}, fmt.Errorf("invalid --count %d", count)
	}

	switch d := quiz.Difficulty(difficulty); d {
	case quiz.Easy, quiz.Medium, quiz.Hard:
		return quiz.Settings{
			Grade:        grade,
			Topics:       selection,
			Difficulty:   d,
			TypeCounts:   counts,
			NumQuestions: count,
		}, nil
	default:
		return quiz.Settings{}, fmt.Errorf("invalid difficulty %q, want Easy, Medium, or Hard", difficulty)
	}
}

func saveActivity(cmd *cobra.Command, s *store.Store, q *quiz.Quiz) (string, error) {
	settings, err := json.Marshal(q.Settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}

	a := &store.Activity{
		ID:          uuid.NewString(),
		Title:       q.Title,
		Description: q.Description,
		Settings:    settings,
		Questions:   questions,
	}
	if err := s.ActivityRepo().Save(cmd.Context(), a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func exportQuiz(cmd *cobra.Command, defaultDir string, q *quiz.Quiz) error {
	formats, _ := cmd.Flags().GetStringSlice("export")
	dest, _ := cmd.Flags().GetString("out")
	if dest == "" {
		dest = defaultDir
	}

	registry, err := buildRegistry(cmd, formats)
	if err != nil {
		return err
	}

	for _, format := range formats {
		e, err := registry.Get(format)
		if err != nil {
			return err
		}
		where, err := e.Export(cmd.Context(), q, dest)
		if err != nil {
			return fmt.Errorf("export %s: %w", format, err)
		}
		fmt.Printf("Exported %s: %s\n", format, where)
	}
	return nil
}

// buildRegistry wires local exporters always, and the Google Forms exporter
// only when asked for, so credentials are not required otherwise.
func buildRegistry(cmd *cobra.Command, formats []string) (*export.Registry, error) {
	registry := export.NewRegistry(
		export.JSONExporter{},
		export.CSVExporter{},
		export.DocumentExporter{},
	)

	for _, f := range formats {
		if strings.EqualFold(f, "gform") {
			credentials, _ := cmd.Flags().GetString("credentials")
			token, _ := cmd.Flags().GetString("token")
			gform, err := export.NewGoogleFormsExporter(cmd.Context(), credentials, token)
			if err != nil {
				return nil, fmt.Errorf("google forms setup: %w", err)
			}
			registry.Register(gform)
			break
		}
	}
	return registry, nil
}
