package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/server"
	"github.com/mazvydas/kasdien/store"
	"github.com/mazvydas/kasdien/store/db"
)

const (
	greetingBanner = `kasdien - daily vocabulary sessions`
)

var (
	rootCmd = &cobra.Command{
		Use:   "kasdien",
		Short: "A daily learning session service",
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:                viper.GetString("mode"),
				Addr:                viper.GetString("addr"),
				Port:                viper.GetInt("port"),
				Data:                viper.GetString("data"),
				Driver:              viper.GetString("driver"),
				DSN:                 viper.GetString("dsn"),
				QuestionSourceURL:   viper.GetString("question-source-url"),
				StatsBackendURL:     viper.GetString("stats-backend-url"),
				TimeSyncEnabled:     viper.GetBool("time-sync-enabled"),
				DistractorWildcards: viper.GetInt("distractor-wildcards"),
				OptionCount:         viper.GetInt("option-count"),
				Version:             version,
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				slog.Error("invalid configuration", slog.String("error", err.Error()))
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create db driver", slog.String("error", err.Error()))
				os.Exit(1)
			}

			storeInstance := store.New(dbDriver, instanceProfile)

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				cancel()
				slog.Error("failed to create server", slog.String("error", err.Error()))
				os.Exit(1)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
				s.Shutdown(ctx)
				cancel()
			}()

			printGreetings(instanceProfile)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", slog.String("error", err.Error()))
				cancel()
			}

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}

	version = "0.1.0"
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8230)
	viper.SetDefault("data", ".")
	viper.SetDefault("time-sync-enabled", false)
	viper.SetDefault("distractor-wildcards", 1)
	viper.SetDefault("option-count", 3)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("question-source-url", "", "base URL of the question source API")
	rootCmd.PersistentFlags().String("stats-backend-url", "", "base URL of the stats backend API")
	rootCmd.PersistentFlags().Bool("time-sync-enabled", false, "compensate for device clock skew using server time")
	rootCmd.PersistentFlags().Int("distractor-wildcards", 1, "random wildcard options per multiple-choice question")
	rootCmd.PersistentFlags().Int("option-count", 3, "wrong options per multiple-choice question")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("kasdien")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(p *profile.Profile) {
	fmt.Println(greetingBanner)
	fmt.Printf("version %s, mode %s, driver %s\n", p.Version, p.Mode, p.Driver)
	fmt.Printf("listening on %s:%d\n", p.Addr, p.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
