package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"inmobiliaria/internal/adapters/auth"
	"inmobiliaria/internal/adapters/blobstore"
	redisad "inmobiliaria/internal/adapters/redis"
	"inmobiliaria/internal/app"
	"inmobiliaria/internal/domain"
	"inmobiliaria/internal/shared"
	mysqlrepo "inmobiliaria/internal/storage/mysql"
)

func repairImagesCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair-images",
		Short: "Restore exactly one main image on every listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workers, _ := cmd.Flags().GetInt("workers")

			db, err := sql.Open("mysql", cfg.MySQLDSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer rdb.Close()

			blobs, err := blobstore.New(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, cfg.StorageRPS, 0)
			if err != nil {
				return err
			}

			repo := mysqlrepo.New(db)
			images := app.NewImageService(repo, repo, blobs, redisad.NewLocker(rdb, cfg.LockTTL, cfg.LockWait), redisad.New(rdb))

			log.Info().Int("workers", workers).Msg("repair starting")
			res, err := repairAll(ctx, repo, images, workers)
			if err != nil {
				return err
			}
			log.Info().
				Int("checked", res.Checked).
				Int("repaired", res.Repaired).
				Int("failed", res.Failed).
				Msg("repair completed")
			if res.Failed > 0 {
				return fmt.Errorf("%d listings could not be repaired", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", cfg.RepairWorkers, "listings repaired concurrently")
	return cmd
}

func ensureBucketCmd(cfg shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-bucket",
		Short: "Create the public image bucket when it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			blobs, err := blobstore.New(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, cfg.StorageRPS, 0)
			if err != nil {
				return err
			}
			if err := blobs.EnsureBucket(cmd.Context()); err != nil {
				return fmt.Errorf("ensure bucket %q: %w", cfg.StorageBucket, err)
			}
			log.Info().Str("bucket", cfg.StorageBucket).Msg("bucket ready")
			return nil
		},
	}
}

func issueTokenCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Sign a session token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			v, err := auth.NewVerifier(cfg.JWTSecret)
			if err != nil {
				return err
			}
			tok, err := v.Issue(domain.Principal{UserID: args[0], Email: email, Role: role}, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("email", "", "email claim")
	cmd.Flags().String("role", "", "app_metadata.role claim (admin grants inquiry access)")
	cmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	return cmd
}
