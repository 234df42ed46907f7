package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gwi.com/venue-assistant/internal/models"
)

var (
	bookingStatus string
	bookingVenue  int64
	bookingNotes  string
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Manage your venue bookings",
	RunE:  runBookingsList,
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookings",
	Args:  cobra.NoArgs,
	RunE:  runBookingsList,
}

var bookingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a venue for a time slot",
	Args:  cobra.NoArgs,
	RunE:  runBookingsCreate,
}

var bookingsCancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookingsCancel,
}

func init() {
	bookingsListCmd.Flags().StringVar(&bookingStatus, "status", "", "Only bookings in this status (pending, confirmed, cancelled, completed)")
	bookingsCreateCmd.Flags().Int64Var(&bookingVenue, "venue", 0, "Venue id")
	bookingsCreateCmd.Flags().StringVar(&slotStart, "start", "", "Start (RFC3339)")
	bookingsCreateCmd.Flags().StringVar(&slotEnd, "end", "", "End (RFC3339)")
	bookingsCreateCmd.Flags().StringVar(&bookingNotes, "notes", "", "Notes for the venue")
	for _, name := range []string{"venue", "start", "end"} {
		_ = bookingsCreateCmd.MarkFlagRequired(name)
	}

	bookingsCmd.AddCommand(bookingsListCmd, bookingsCreateCmd, bookingsCancelCmd)
}

func runBookingsList(cmd *cobra.Command, args []string) error {
	bookings, err := bookingClient().ListBookings(cmd.Context(), models.BookingFilter{
		UserID: cfg.UserID,
		Status: models.BookingStatus(bookingStatus),
	})
	if err != nil {
		return err
	}
	printBookings(cmd.OutOrStdout(), bookings)
	return nil
}

func runBookingsCreate(cmd *cobra.Command, args []string) error {
	start, end, err := parseSlot(slotStart, slotEnd)
	if err != nil {
		return err
	}
	req := models.BookingRequest{VenueID: bookingVenue, UserID: cfg.UserID, StartTime: start, EndTime: end}
	if bookingNotes != "" {
		req.Notes = models.StringPtr(bookingNotes)
	}
	booking, err := bookingClient().CreateBooking(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Booked %s as %s, total $%.2f (%s)\n",
		booking.Venue.Name, booking.BookingReference, booking.TotalCost, booking.Status)
	return nil
}

func runBookingsCancel(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid booking id %q", args[0])
	}
	booking, err := bookingClient().CancelBooking(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s.\n", booking.BookingReference)
	return nil
}

func printBookings(out io.Writer, bookings []models.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(out, "No bookings found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tVENUE\tSTART\tEND\tCOST\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t$%.2f\t%s\n", b.ID, b.BookingReference, b.Venue.Name,
			b.StartTime.Format("2006-01-02 15:04"), b.EndTime.Format("2006-01-02 15:04"), b.TotalCost, b.Status)
	}
	_ = w.Flush()
}
