package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/sqlassist/internal/models"
	"github.com/wuwenbin0122/sqlassist/internal/sqlgen"
)

const (
	NoticeEmpty    = "The query was successful, but no data matches your criteria."
	NoticeNoResult = "Empty response from the database."
	resultHeader   = "Result:"
)

// QueryGenerator produces a validated SELECT statement for a question.
type QueryGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// QueryRunner executes a validated statement.
type QueryRunner interface {
	Run(ctx context.Context, query string) (*models.ResultTable, error)
}

// Stage is reported to ProgressFunc while a question is answered.
type Stage string

const (
	StageThinking  Stage = "thinking"
	StageExecuting Stage = "executing"
)

// ProgressFunc is called with the stage and, once known, the generated SQL.
type ProgressFunc func(stage Stage, sql string)

// Reply is the outcome of one question.
type Reply struct {
	Question models.Message `json:"question"`
	Answer   models.Message `json:"answer"`
	Notice   string         `json:"notice"`
}

type Assistant struct {
	generator QueryGenerator
	runner    QueryRunner
	store     *Store
	logger    *zap.SugaredLogger
}

func NewAssistant(generator QueryGenerator, runner QueryRunner, store *Store, logger *zap.SugaredLogger) *Assistant {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Assistant{generator: generator, runner: runner, store: store, logger: logger}
}

func (a *Assistant) Store() *Store {
	return a.store
}

// Ask records the question, generates and runs the query and records the
// answer. Generation and execution failures are turned into an error or
// security answer; only a blank question is returned as an error.
func (a *Assistant) Ask(ctx context.Context, sessionID, question string, progress ProgressFunc) (*Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, sqlgen.ErrEmptyQuestion
	}
	if progress == nil {
		progress = func(Stage, string) {}
	}

	asked := a.store.Append(sessionID, models.Message{
		Role:    models.RoleUser,
		Content: question,
		Kind:    models.KindQuestion,
	})

	progress(StageThinking, "")

	answer, notice := a.answer(ctx, question, progress)
	answer = a.store.Append(sessionID, answer)

	return &Reply{Question: asked, Answer: answer, Notice: notice}, nil
}

func (a *Assistant) answer(ctx context.Context, question string, progress ProgressFunc) (models.Message, string) {
	sql, err := a.generator.Generate(ctx, question)
	if err != nil {
		return a.failure(err, "")
	}

	progress(StageExecuting, sql)

	table, err := a.runner.Run(ctx, sql)
	if err != nil {
		return a.failure(err, sql)
	}

	// a statement without a result set differs from a query that matched nothing
	if table == nil || len(table.Columns) == 0 {
		return emptyAnswer(sql, NoticeNoResult)
	}
	if table.RowCount() == 0 {
		return emptyAnswer(sql, NoticeEmpty)
	}

	notice := fmt.Sprintf("Security Check Passed. Retrieved %d rows.", table.RowCount())
	if table.Truncated {
		notice += " Showing the first rows only."
	}

	return models.Message{
		Role:    models.RoleAssistant,
		Content: resultHeader,
		Kind:    models.KindResult,
		SQL:     sql,
		Table:   table,
	}, notice
}

func emptyAnswer(sql, notice string) (models.Message, string) {
	return models.Message{
		Role:    models.RoleAssistant,
		Content: notice,
		Kind:    models.KindEmpty,
		SQL:     sql,
	}, notice
}

func (a *Assistant) failure(err error, sql string) (models.Message, string) {
	kind := Classify(err)
	text := Describe(err)

	if kind == models.KindSecurity {
		a.logger.Warnw("question blocked", "error", err)
	} else {
		a.logger.Errorw("question failed", "error", err, "sql", sql)
	}

	return models.Message{
		Role:    models.RoleAssistant,
		Content: text,
		Kind:    kind,
		SQL:     sql,
	}, text
}

var securityMarkers = []string{"Security", "Unauthorized", "AI Refused"}

// Classify separates security rejections from other failures.
func Classify(err error) models.MessageKind {
	if err == nil {
		return models.KindResult
	}
	if sqlgen.IsSecurityError(err) {
		return models.KindSecurity
	}

	msg := err.Error()
	for _, marker := range securityMarkers {
		if strings.Contains(msg, marker) {
			return models.KindSecurity
		}
	}
	return models.KindError
}

// Describe renders err the way the chat shows it.
func Describe(err error) string {
	if Classify(err) == models.KindSecurity {
		return "SECURITY ALERT: " + err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "ERROR: the request timed out"
	}
	return "ERROR: " + err.Error()
}
