package main

import (
	"errors"
	"log"
	"net"

	"github.com/SachinRathod0101/Time-left-backend/internal/config"
	"github.com/SachinRathod0101/Time-left-backend/internal/database"
	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/spf13/cobra"
)

var adminFlags struct {
	name     string
	email    string
	password string
}

// Admin accounts are never created over HTTP.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	Example: `  timeleft create-admin --name "Ops" --email ops@timeleft.app --password 's3cret!'
  timeleft create-admin --email existing@timeleft.app`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminFlags.email == "" {
			return errors.New("--email is required")
		}
		cfg := config.Load()

		client, db, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return err
		}
		defer database.DisconnectMongo(client)

		users := services.NewUserService(store.NewUserRepository(db),
			services.NewTokenManager(cfg.JWTSecret, cfg.JWTExpire), nil, nil, cfg.ExternalCallTimeout)
		admin, err := users.CreateAdmin(cmd.Context(), adminFlags.name, adminFlags.email, adminFlags.password)
		if err != nil {
			return err
		}
		log.Printf("✅ Admin ready: %s <%s> (%s)", admin.Name, admin.Email, admin.ID.Hex())
		return nil
	},
}

var unblockIPCmd = &cobra.Command{
	Use:   "unblock-ip <ip>",
	Short: "Lift a rate-limit block from an IP address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := net.ParseIP(args[0])
		if ip == nil {
			return errors.New("invalid IP address: " + args[0])
		}
		cfg := config.Load()

		rdb, err := database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			return err
		}
		defer database.DisconnectRedis(rdb)

		limiter := middleware.NewRateLimiter(rdb)
		blocked, err := limiter.IsBlocked(cmd.Context(), ip.String())
		if err != nil {
			return err
		}
		if !blocked {
			log.Printf("%s is not blocked", ip)
			return nil
		}
		if err := limiter.Unblock(cmd.Context(), ip.String()); err != nil {
			return err
		}
		log.Printf("✅ Unblocked %s", ip)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "", "display name (new accounts only)")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "account email")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "password (new accounts only)")
	rootCmd.AddCommand(createAdminCmd, unblockIPCmd)
}
