package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SchemaSource supplies the schema text and dialect of the target database.
type SchemaSource interface {
	TableInfo(ctx context.Context) (string, error)
	Dialect() string
}

// Completer turns a prompt into model output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator translates natural-language questions into filtered SELECT statements.
type Generator struct {
	schema SchemaSource
	llm    Completer
	logger *zap.SugaredLogger
}

func NewGenerator(schema SchemaSource, llm Completer, logger *zap.SugaredLogger) *Generator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{schema: schema, llm: llm, logger: logger}
}

// Generate returns a query that passed Validate, or a *SecurityError when the
// model output was rejected.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	schema, err := g.schema.TableInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}

	raw, err := g.llm.Complete(ctx, BuildPrompt(g.schema.Dialect(), schema, question))
	if err != nil {
		return "", err
	}

	sql := Clean(raw)
	if err := Validate(sql); err != nil {
		g.logger.Warnw("generated query rejected", "error", err, "response", raw)
		return "", err
	}

	g.logger.Infow("generated query accepted", "sql", sql)
	return sql, nil
}
