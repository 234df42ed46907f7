package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gwi.com/venue-assistant/internal/conversation"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/sessions"
	"gwi.com/venue-assistant/internal/widget"
)

const replHelp = `Commands:
  /new          start a new chat
  /sessions     list your sessions
  /load <id>    continue a stored session
  /delete <id>  delete a stored session
  /quit         leave`

func runChat(cmd *cobra.Command, args []string) error {
	c := widget.New(chatClient(), cfg.UserID, logger)
	defer c.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (user %s). Type /help for commands.\n", cfg.AppName, cfg.AppVersion, cfg.UserID)
	return repl(cmd.Context(), c, cmd.InOrStdin(), out, time.Now)
}

// repl reads one line at a time: slash commands drive the controller, anything
// else is sent as a message. It returns on /quit, end of input or ctx done.
func repl(ctx context.Context, c *widget.Controller, in io.Reader, out io.Writer, now func() time.Time) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := command(ctx, c, out, line, now)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := c.SendMessage(ctx, line); err != nil {
			if errors.Is(err, conversation.ErrSuperseded) || ctx.Err() != nil {
				continue
			}
			fmt.Fprintf(out, "error: %s\n", c.Chat().Error)
			continue
		}
		if msgs := c.Chat().Messages; len(msgs) > 0 {
			fmt.Fprintf(out, "assistant: %s\n", msgs[len(msgs)-1].DisplayText())
		}
	}
}

func command(ctx context.Context, c *widget.Controller, out io.Writer, line string, now func() time.Time) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, replHelp)
	case "/new":
		c.NewChat()
		fmt.Fprintln(out, "Started a new chat.")
	case "/sessions":
		if err := c.RefreshSessions(ctx); err != nil {
			return false, err
		}
		sb := c.Sidebar()
		printSessions(out, sb.Sessions, sb.CurrentSessionID, now())
	case "/load":
		id, err := sessionArg(fields)
		if err != nil {
			return false, err
		}
		if err := c.SelectSession(ctx, id); err != nil {
			return false, err
		}
		printTranscript(out, c.Chat().Messages)
	case "/delete":
		id, err := sessionArg(fields)
		if err != nil {
			return false, err
		}
		if err := c.DeleteSession(ctx, id); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Deleted session %d.\n", id)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	return false, nil
}

func sessionArg(fields []string) (int64, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <session-id>", fields[0])
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", fields[1])
	}
	return id, nil
}

func printSessions(out io.Writer, list []models.ChatSession, current *int64, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions yet.")
		return
	}
	for _, s := range list {
		marker := " "
		if current != nil && *current == s.ID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d  %s  (%s)\n    %s\n", marker, s.ID, sessions.TitleFor(s), sessions.RelativeDate(s.UpdatedAt, now), sessions.PreviewFor(s))
	}
}

func printTranscript(out io.Writer, msgs []models.ChatMessage) {
	for _, m := range msgs {
		who := "you"
		switch m.SenderType {
		case models.SenderAdmin:
			who = "assistant"
		case models.SenderSystem:
			who = "system"
		}
		fmt.Fprintf(out, "%s: %s\n", who, m.DisplayText())
	}
}
