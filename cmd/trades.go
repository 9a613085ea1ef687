package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/progress"
	"github.com/ziadkadry99/tradebook/internal/records"
)

var importReplace bool

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Manage the signed-in user's trades",
	Long: `Signs in with TRADEBOOK_EMAIL and TRADEBOOK_PASSWORD (prompting for
whatever is missing) and works on that user's trades.`,
}

var tradesImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk insert trades from a CSV file",
	Long: `Reads a CSV whose header uses the trade field names (date, side, code,
name, brokerName, price, lots, shares, costNoFee, fee, tax, totalCost) and
inserts every row in a single request.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		out := cmd.OutOrStdout()
		reporter := progress.NewReporter(cmd.ErrOrStderr())
		reporter.Start(-1, "Parsing trades")
		trades, err := records.ReadTradesCSV(f, reporter.Update)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		reporter.Finish(fmt.Sprintf("Parsed %d trades", len(trades)))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		store, sess, logger, err := signedInStore(ctx)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if importReplace {
			if err := store.DeleteAllTrades(ctx, sess.User.ID); err != nil {
				return fmt.Errorf("clearing trades: %w", err)
			}
		}
		inserted, err := store.BulkAddTrades(ctx, sess.User.ID, trades)
		if err != nil {
			return fmt.Errorf("inserting trades: %w", err)
		}
		fmt.Fprintf(out, "Imported %d trades for %s\n", len(inserted), sess.User.Email)
		return nil
	},
}

var tradesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print trades in date order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		store, sess, logger, err := signedInStore(ctx)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tSIDE\tCODE\tNAME\tBROKER\tPRICE\tSHARES\tTOTAL")
		for _, t := range store.LoadTrades(ctx, sess.User.ID) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\t%.2f\n",
				t.Date, t.Side, t.Code, t.Name, t.BrokerName, t.Price, t.Shares, t.TotalCost)
		}
		return tw.Flush()
	},
}

func init() {
	tradesImportCmd.Flags().BoolVar(&importReplace, "replace", false, "delete existing trades before importing")
	tradesCmd.AddCommand(tradesImportCmd)
	tradesCmd.AddCommand(tradesListCmd)
	rootCmd.AddCommand(tradesCmd)
}

// signedInStore signs in and returns a records store bound to that session.
func signedInStore(ctx context.Context) (*records.Store, *backend.Session, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	email, password, err := credentials()
	if err != nil {
		return nil, nil, nil, err
	}
	sess, err := client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("signing in as %s: %w", email, err)
	}
	return records.NewStore(client, logger).For(sess), sess, logger, nil
}

// credentials reads the login from the environment, prompting for anything unset.
func credentials() (string, string, error) {
	email := os.Getenv("TRADEBOOK_EMAIL")
	if email == "" {
		p := promptui.Prompt{Label: "Email"}
		v, err := p.Run()
		if err != nil {
			return "", "", fmt.Errorf("reading email: %w", err)
		}
		email = v
	}
	password := os.Getenv("TRADEBOOK_PASSWORD")
	if password == "" {
		p := promptui.Prompt{Label: "Password", Mask: '*'}
		v, err := p.Run()
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = v
	}
	return email, password, nil
}
