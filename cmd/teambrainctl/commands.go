package main

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/teambrain/internal/api/middleware"
	"github.com/Harshitk-cp/teambrain/internal/buildconfig"
	"github.com/Harshitk-cp/teambrain/internal/config"
	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	clientName    string

	rootCmd = &cobra.Command{
		Use:           "teambrainctl",
		Short:         "Administer a Team Brain deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load()
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE:  runMigrate,
	}

	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Manage API clients",
	}
	clientCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an API client and print its key once",
		RunE:  runClientCreate,
	}

	purgeUserCmd = &cobra.Command{
		Use:   "purge-user [user-id]",
		Short: "Delete every hypothesis a user authored",
		Args:  cobra.ExactArgs(1),
		RunE:  runPurgeUser,
	}

	expireCmd = &cobra.Command{
		Use:   "expire-suggestions",
		Short: "Reject sharing suggestions pending longer than SUGGESTION_TTL",
		RunE:  runExpireSuggestions,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildconfig.String())
		},
	}
)

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (default MIGRATIONS_PATH)")
	clientCreateCmd.Flags().StringVar(&clientName, "name", "", "client name")
	_ = clientCreateCmd.MarkFlagRequired("name")

	clientCmd.AddCommand(clientCreateCmd)
	rootCmd.AddCommand(migrateCmd, clientCmd, purgeUserCmd, expireCmd, versionCmd)
}

// withPool opens the database and a logger for one command.
func withPool(ctx context.Context, fn func(pool *pgxpool.Pool, logger *zap.Logger) error) error {
	logger, err := config.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(pool, logger)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dir := migrationsDir
	if dir == "" {
		dir = config.MigrationsPath()
	}
	return withPool(cmd.Context(), func(pool *pgxpool.Pool, logger *zap.Logger) error {
		return store.Migrate(cmd.Context(), pool, dir, logger)
	})
}

func runClientCreate(cmd *cobra.Command, args []string) error {
	return withPool(cmd.Context(), func(pool *pgxpool.Pool, logger *zap.Logger) error {
		key, err := middleware.GenerateAPIKey()
		if err != nil {
			return fmt.Errorf("generate API key: %w", err)
		}
		client := &domain.APIClient{Name: clientName, APIKeyHash: middleware.HashAPIKey(key)}
		if err := store.NewAPIClientStore(pool).Create(cmd.Context(), client); err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "client id: %s\n", client.ID)
		fmt.Fprintf(out, "api key:   %s\n", key)
		return nil
	})
}

func runPurgeUser(cmd *cobra.Command, args []string) error {
	return withPool(cmd.Context(), func(pool *pgxpool.Pool, logger *zap.Logger) error {
		svc := service.NewHypothesisService(
			store.NewHypothesisStore(pool),
			store.NewTeamStore(pool),
			service.NewOriginHasher(config.OriginHashSecret()),
			logger,
		)
		n, err := svc.PurgeUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d hypotheses\n", n)
		return nil
	})
}

func runExpireSuggestions(cmd *cobra.Command, args []string) error {
	return withPool(cmd.Context(), func(pool *pgxpool.Pool, logger *zap.Logger) error {
		expirer := service.NewSuggestionExpirer(store.NewSuggestionStore(pool), logger)
		expirer.SetTTL(config.SuggestionTTL())
		n, err := expirer.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d suggestions\n", n)
		return nil
	})
}
