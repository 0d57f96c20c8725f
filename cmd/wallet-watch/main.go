package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kelsos/wallet-watch/internal/backup"
	"github.com/kelsos/wallet-watch/internal/config"
	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/pairing"
	"github.com/kelsos/wallet-watch/internal/services"
	"github.com/kelsos/wallet-watch/internal/storage"
	"github.com/kelsos/wallet-watch/internal/tui"
	"github.com/kelsos/wallet-watch/internal/utils"
)

func main() {
	utils.LoadEnvironment()
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "wallet-watch",
		Short: "Track the fiat value of your bitcoin wallet",
		Long: `wallet-watch shows the current price, balance and profit of a set of bitcoin
addresses and relays its settings to a paired companion device.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.dataDir, "data-dir", "", "", "Directory where documents are stored (default: ~/.wallet-watch)")
	rootCmd.PersistentFlags().StringVarP(&opts.role, "role", "", "", "Device role: primary or companion")

	rootCmd.AddCommand(newRefreshCmd(&opts))
	rootCmd.AddCommand(newShowCmd(&opts))
	rootCmd.AddCommand(newParamsCmd(&opts))
	rootCmd.AddCommand(newCompanionCmd(&opts))
	rootCmd.AddCommand(newBackupCmd(&opts))

	return rootCmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runDashboard(parent context.Context, opts options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}

	logPath, err := logger.InitFileOnly(a.cfg.LogDir)
	if err != nil {
		return err
	}
	defer logger.Close()
	fmt.Printf("Logging to %s\n", logPath)

	ctx, cancel := signalContext(parent)
	defer cancel()

	dashboard := tui.NewDashboard(a.refresh, a.state)
	if err := dashboard.Start(ctx); err != nil {
		return err
	}

	if a.cfg.Role == config.RoleCompanion {
		companion := startCompanion(ctx, a, pairing.NewWSServer(), dashboard)
		defer companion.Close()
	}

	return dashboard.Run()
}

// companionUI is the part of the dashboard the companion reports to
type companionUI interface {
	ParamsSynced(doc models.StoredParams)
	RequestRefresh()
	AddLog(message string)
}

// startCompanion persists documents received on server and revalues the
// wallet with each one. The pairing listener runs until ctx is cancelled.
func startCompanion(ctx context.Context, a *app, server *pairing.WSServer, ui companionUI) *services.Companion {
	companion := services.NewCompanion(a.store, server, func(doc models.StoredParams) {
		ui.ParamsSynced(doc)
		ui.RequestRefresh()
	})

	go func() {
		if err := server.ListenAndServe(ctx, a.cfg.PairListenAddr); err != nil {
			logger.Error("Pairing server stopped: %v", err)
			ui.AddLog(fmt.Sprintf("Pairing unavailable on %s", a.cfg.PairListenAddr))
		}
	}()

	return companion
}

func newRefreshCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the latest price and balance and store a new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a.refresh.LoadOnly(a.state)
			result, err := a.refresh.Refresh(ctx, a.state)
			if err != nil {
				return err
			}

			printSnapshot(cmd.OutOrStdout(), a.state.Snapshot())
			if !result.Persisted {
				return errors.New("snapshot was not saved")
			}
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the last stored snapshot without any network call",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}

			if !a.refresh.LoadOnly(a.state) {
				fmt.Fprintln(cmd.OutOrStdout(), "No data found")
				return nil
			}
			printSnapshot(cmd.OutOrStdout(), a.state.Snapshot())
			return nil
		},
	}
}

func printSnapshot(w io.Writer, view services.StateView) {
	fmt.Fprintf(w, "Price:   %.2f %s (%+.2f%%)\n", view.Current.BitcoinPrice, view.Currency, view.Variation.Price)
	fmt.Fprintf(w, "Balance: %.2f %s (%+.2f%%)\n", view.Current.BitcoinBalance, view.Currency, view.Variation.Balance)
	fmt.Fprintf(w, "Profit:  %.2f %s (%+.2f%%)\n", view.Current.BitcoinProfit, view.Currency, view.Variation.Profit)
	if view.LastError != "" {
		fmt.Fprintf(w, "Warning: %s\n", view.LastError)
	}
}

func newParamsCmd(opts *options) *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Manage the wallet parameters",
	}

	var (
		addresses string
		invested  float64
		currency  string
		darkMode  bool
	)

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save the wallet parameters and push them to the paired device",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			doc, err := a.params.Save(ctx, models.WalletParams{
				Address:        models.ParseAddressList(addresses),
				InvestedAmount: invested,
				Currency:       currency,
				DarkMode:       darkMode,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", doc.BitcoinParams.String())
			return nil
		},
	}
	setCmd.Flags().StringVarP(&addresses, "address", "a", "", "Comma separated list of bitcoin addresses")
	setCmd.Flags().Float64VarP(&invested, "invested", "i", 0, "Total amount invested, in the chosen currency")
	setCmd.Flags().StringVarP(&currency, "currency", "", "BRL", "Fiat currency code")
	setCmd.Flags().BoolVarP(&darkMode, "dark", "", false, "Use the dark palette")
	_ = setCmd.MarkFlagRequired("address")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored wallet parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}

			doc := a.params.Load()
			if doc.BitcoinParams == nil {
				fmt.Fprintln(cmd.OutOrStdout(), doc.Error)
				return nil
			}

			p := doc.BitcoinParams
			fmt.Fprintf(cmd.OutOrStdout(), "Addresses: %s\nInvested:  %.2f %s\nDark mode: %t\n",
				strings.Join(p.Address, ", "), p.InvestedAmount, p.Currency, p.DarkMode)
			return nil
		},
	}

	paramsCmd.AddCommand(setCmd)
	paramsCmd.AddCommand(showCmd)
	return paramsCmd
}

func newCompanionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "companion",
		Short: "Receive wallet parameters from the primary device without the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			companionOpts := *opts
			companionOpts.role = config.RoleCompanion

			a, err := newApp(companionOpts)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			server := pairing.NewWSServer()
			companion := services.NewCompanion(a.store, server, func(doc models.StoredParams) {
				if doc.BitcoinParams != nil {
					logger.Info("Now tracking %s", doc.BitcoinParams.String())
				}
			})
			defer companion.Close()

			return server.ListenAndServe(ctx, a.cfg.PairListenAddr)
		},
	}
}

func newBackupCmd(opts *options) *cobra.Command {
	var backupDir string

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a zip backup of the stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			if backupDir == "" {
				backupDir = cfg.BackupDir
			}

			store, err := storage.NewFileStore(cfg.DataDir)
			if err != nil {
				return err
			}

			backupFile, err := backup.CreateBackup(store, backupDir)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), backupFile)
			return nil
		},
	}
	backupCmd.Flags().StringVarP(&backupDir, "backup-dir", "", "", "Directory where the backup will be stored (default: ~/backups)")

	return backupCmd
}
