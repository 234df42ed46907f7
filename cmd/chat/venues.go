package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gwi.com/venue-assistant/internal/models"
)

var (
	minCapacity int
	maxRate     float64
	slotStart   string
	slotEnd     string
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Browse venues",
	RunE:  runVenuesList,
}

var venuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List venues",
	Args:  cobra.NoArgs,
	RunE:  runVenuesList,
}

var venuesRecommendCmd = &cobra.Command{
	Use:   "recommend <request...>",
	Short: "Ask the assistant which venues fit a request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := chatClient().VenueRecommendations(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var venuesAvailabilityCmd = &cobra.Command{
	Use:   "availability <venue-id>",
	Short: "Check whether a venue is free for a time slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runVenuesAvailability,
}

func init() {
	venuesCmd.PersistentFlags().IntVar(&minCapacity, "min-capacity", 0, "Only venues holding at least this many people")
	venuesCmd.PersistentFlags().Float64Var(&maxRate, "max-rate", 0, "Only venues at or below this hourly rate")
	venuesAvailabilityCmd.Flags().StringVar(&slotStart, "start", "", "Slot start (RFC3339)")
	venuesAvailabilityCmd.Flags().StringVar(&slotEnd, "end", "", "Slot end (RFC3339)")
	_ = venuesAvailabilityCmd.MarkFlagRequired("start")
	_ = venuesAvailabilityCmd.MarkFlagRequired("end")

	venuesCmd.AddCommand(venuesListCmd, venuesRecommendCmd, venuesAvailabilityCmd)
}

func runVenuesList(cmd *cobra.Command, args []string) error {
	venues, err := bookingClient().ListVenues(cmd.Context(), models.VenueFilter{MinCapacity: minCapacity, MaxRate: maxRate})
	if err != nil {
		return err
	}
	printVenues(cmd.OutOrStdout(), venues)
	return nil
}

func runVenuesAvailability(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid venue id %q", args[0])
	}
	start, end, err := parseSlot(slotStart, slotEnd)
	if err != nil {
		return err
	}
	avail, err := bookingClient().CheckAvailability(cmd.Context(), id, start, end)
	if err != nil {
		return err
	}
	state := "available"
	if !avail.IsAvailable {
		state = fmt.Sprintf("not available (%d conflicting bookings)", avail.Conflicts)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s from %s to %s\n", avail.VenueName, state,
		avail.StartTime.Format(time.RFC3339), avail.EndTime.Format(time.RFC3339))
	return nil
}

func parseSlot(startText, endText string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startText)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endText)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func printVenues(out io.Writer, venues []models.Venue) {
	if len(venues) == 0 {
		fmt.Fprintln(out, "No venues found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCAPACITY\tRATE/HOUR\tAVAILABLE")
	for _, v := range venues {
		fmt.Fprintf(w, "%d\t%s\t%d\t$%.2f\t%t\n", v.ID, v.Name, v.Capacity, v.HourlyRate, v.IsAvailable)
	}
	_ = w.Flush()
}
