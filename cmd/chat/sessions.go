package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gwi.com/venue-assistant/internal/sessions"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and delete your chat sessions",
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your chat sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store := sessions.New(chatClient(), cfg.UserID, logger)
	if err := store.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	printSessions(cmd.OutOrStdout(), store.Snapshot().Sessions, nil, time.Now())
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}
	if err := chatClient().DeleteSession(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d.\n", id)
	return nil
}
