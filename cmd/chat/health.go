package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gwi.com/venue-assistant/internal/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the chatbot and booking APIs answer",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	var (
		chat   *models.HealthStatus
		venues []models.Venue
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		chat, err = chatClient().Health(ctx)
		if err != nil {
			return fmt.Errorf("chatbot API: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		venues, err = bookingClient().ListVenues(ctx, models.VenueFilter{})
		if err != nil {
			return fmt.Errorf("booking API: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chatbot: %s (database %s, %d venues, %d messages)\n", chat.Status, chat.Database, chat.VenuesCount, chat.MessagesCount)
	fmt.Fprintf(out, "booking: ok (%d venues)\n", len(venues))
	return nil
}
