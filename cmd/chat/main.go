// Command chat is a terminal front end for the venue assistant. Run without
// arguments it starts an interactive conversation; subcommands expose sessions,
// venues and bookings directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/client"
	"gwi.com/venue-assistant/internal/config"
	"gwi.com/venue-assistant/internal/logging"
)

var (
	// Global flags
	verbose bool
	userID  string

	cfg    config.ClientConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the venue booking assistant",
	Long: `chat talks to the venue assistant API configured by API_BASE_URL,
CHATBOT_API_URL and BOOKING_API_URL (a .env file is honoured).

Run without arguments to start an interactive conversation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded.Client
		if userID != "" {
			cfg.UserID = userID
		}
		logger, err = logging.New(verbose || cfg.Debug)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User id (default CHAT_USER_ID)")

	rootCmd.AddCommand(sessionsCmd, venuesCmd, bookingsCmd, healthCmd)
}

func chatClient() *client.ChatClient {
	return client.NewChatClient(cfg.ChatbotURL, cfg.RequestTimeout, logger)
}

func bookingClient() *client.BookingClient {
	return client.NewBookingClient(cfg.BookingURL, cfg.RequestTimeout, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
