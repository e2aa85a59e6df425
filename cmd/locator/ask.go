package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	locator "github.com/refugee-resources/resource-locator"
	"github.com/refugee-resources/resource-locator/internal/catalog"
	"github.com/refugee-resources/resource-locator/internal/chat"
	"github.com/refugee-resources/resource-locator/internal/extract"
	"github.com/refugee-resources/resource-locator/internal/resource"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask",
		Short: "Chat with the assistant on the terminal",
		Long:  "Read one message per line from stdin and print the assistant's replies.\nSessions are kept in memory only.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			src, err := locator.NewSource(cfg.Dataset)
			if err != nil {
				return err
			}

			assistant := chat.NewAssistant(
				extract.NewOpenAI(locator.ExtractOptions(cfg), nil),
				catalog.New(src, nil, locator.IndexOptions(cfg)),
				chat.NewMemoryStore(),
				cfg.Chat.MaxInput,
			)

			out := cmd.OutOrStdout()
			id := uuid.NewString()
			fmt.Fprintln(out, chat.GreetingMessage)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				reply, err := assistant.Send(cmd.Context(), id, line)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				printReply(out, reply)
			}
			return scanner.Err()
		},
	}
}

func printReply(w io.Writer, reply chat.Reply) {
	if len(reply.Results) == 0 {
		fmt.Fprintln(w, reply.Message)
		return
	}
	for _, m := range reply.Results {
		r := m.Record
		fmt.Fprintf(w, "- %s (%s)\n", r.OrganizationName, r.Address())
		fmt.Fprintf(w, "    services: %s | languages: %s\n",
			resource.JoinServiceTypes(r.ServiceTypes), resource.JoinLanguages(r.Languages))
		if !reply.Full {
			fmt.Fprintf(w, "    matches: %s\n", strings.Join(matchedOn(m), ", "))
		}
	}
}
