package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wuwenbin0122/sqlassist/internal/chat"
	"github.com/wuwenbin0122/sqlassist/internal/llm"
	"github.com/wuwenbin0122/sqlassist/internal/models"
	"github.com/wuwenbin0122/sqlassist/internal/sqlgen"
)

const cliSession = "cli"

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Translate a question into SQL, run it and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, database, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			client, err := llm.New(cfg.LLM, logger.Named("llm"))
			if err != nil {
				return err
			}

			generator := sqlgen.NewGenerator(database, client, logger.Named("sqlgen"))
			assistant := chat.NewAssistant(generator, database, chat.NewStore(0), logger.Named("chat"))

			reply, err := assistant.Ask(ctx, cliSession, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}

			return printReply(cmd.OutOrStdout(), reply)
		},
	}
}

func printReply(out io.Writer, reply *chat.Reply) error {
	answer := reply.Answer

	if answer.SQL != "" {
		fmt.Fprintln(out, sqlStyle.Render(answer.SQL))
	}

	switch answer.Kind {
	case models.KindResult:
		fmt.Fprintln(out, renderTable(answer.Table))
		fmt.Fprintln(out, successStyle.Render(reply.Notice))
	case models.KindEmpty:
		fmt.Fprintln(out, infoStyle.Render(reply.Notice))
	default:
		fmt.Fprintln(out, errorStyle.Render(reply.Notice))
		return errors.New(string(answer.Kind))
	}

	return nil
}
