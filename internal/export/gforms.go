package export

import (
	"context"
	"fmt"

	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"

	"quizforge/internal/quiz"
)

// FormsExporter publishes a quiz as a graded Google Form. Questions are
// grouped into sections by type, in the order they appear in the quiz.
type FormsExporter struct {
	svc *forms.Service
}

// NewFormsExporter wraps an existing Forms service, mainly for tests.
func NewFormsExporter(svc *forms.Service) *FormsExporter {
	return &FormsExporter{svc: svc}
}

// NewGoogleFormsExporter authorizes against Google and builds the exporter.
func NewGoogleFormsExporter(ctx context.Context, credentialsPath, tokenPath string) (*FormsExporter, error) {
	client, err := googleClient(ctx, credentialsPath, tokenPath)
	if err != nil {
		return nil, err
	}
	svc, err := forms.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create forms service: %w", err)
	}
	return &FormsExporter{svc: svc}, nil
}

func (e *FormsExporter) Format() string { return "gform" }

// Export creates the form, flips it into quiz mode, and appends every
// question with its grading in one batch. It returns the responder URL.
func (e *FormsExporter) Export(ctx context.Context, q *quiz.Quiz, _ string) (string, error) {
	created, err := e.svc.Forms.Create(&forms.Form{
		Info: &forms.Info{Title: q.Title, DocumentTitle: q.Title},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create form: %w", err)
	}

	requests := []*forms.Request{{
		UpdateSettings: &forms.UpdateSettingsRequest{
			Settings: &forms.FormSettings{
				QuizSettings: &forms.QuizSettings{IsQuiz: true},
			},
			UpdateMask: "quizSettings.isQuiz",
		},
	}}
	requests = append(requests, itemRequests(q)...)

	_, err = e.svc.Forms.BatchUpdate(created.FormId, &forms.BatchUpdateFormRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("populate form: %w", err)
	}

	return created.ResponderUri, nil
}

// itemRequests lays the quiz out as form items: a section break whenever
// the question type changes, then the question itself.
func itemRequests(q *quiz.Quiz) []*forms.Request {
	var requests []*forms.Request
	index := int64(0)
	add := func(item *forms.Item) {
		requests = append(requests, &forms.Request{
			CreateItem: &forms.CreateItemRequest{
				Item: item,
				Location: &forms.Location{
					Index:           index,
					ForceSendFields: []string{"Index"},
				},
			},
		})
		index++
	}

	var lastType quiz.QuestionType
	for _, question := range q.Questions {
		if question.Type != lastType {
			add(&forms.Item{
				Title:         sectionTitle(question.Type),
				PageBreakItem: &forms.PageBreakItem{},
			})
			lastType = question.Type
		}
		add(questionItem(question))
	}
	return requests
}

func questionItem(q quiz.Question) *forms.Item {
	fq := &forms.Question{
		Required: true,
		Grading: &forms.Grading{
			PointValue: 1,
			CorrectAnswers: &forms.CorrectAnswers{
				Answers: []*forms.CorrectAnswer{{Value: q.Answer}},
			},
		},
	}

	switch q.Type {
	case quiz.TypeMCQ:
		fq.ChoiceQuestion = choiceQuestion(q.Options)
	case quiz.TypeTrueFalse:
		fq.ChoiceQuestion = choiceQuestion([]string{quiz.LabelCorrect, quiz.LabelWrong})
	default:
		fq.TextQuestion = &forms.TextQuestion{}
	}

	return &forms.Item{
		Title:        q.Question,
		QuestionItem: &forms.QuestionItem{Question: fq},
	}
}

func choiceQuestion(options []string) *forms.ChoiceQuestion {
	cq := &forms.ChoiceQuestion{Type: "RADIO"}
	for _, o := range options {
		cq.Options = append(cq.Options, &forms.Option{Value: o})
	}
	return cq
}

func sectionTitle(t quiz.QuestionType) string {
	switch t {
	case quiz.TypeMCQ:
		return "Multiple Choice"
	case quiz.TypeTrueFalse:
		return "True or False"
	case quiz.TypeFillBlank:
		return "Fill in the Blank"
	case quiz.TypeNumerical:
		return "Numerical"
	default:
		return "Short Answer"
	}
}
