/*
Package main is the entry point of roombot.

It loads configuration, initializes the global logging system, connects one session per
configured room, serves the status API and handles operating system interrupt signals
(SIGINT, SIGTERM) to shut every session down gracefully.

Running "roombot token <name>" prints an admin bearer token for the status API instead.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"roombot/internal/app/banlist"
	"roombot/internal/app/chat"
	"roombot/internal/app/db"
	"roombot/internal/app/gateway"
	"roombot/internal/app/protocol"
	"roombot/internal/app/storage"
	"roombot/internal/configs"
	"roombot/internal/handler"
	"roombot/internal/pkg/auth/jwt"
	"roombot/internal/pkg/logx"
)

const (
	lookupCacheSize = 256
	lookupCacheTTL  = 10 * time.Minute
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		issueToken(cfg, os.Args[2:])
		return
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Strs("rooms", cfg.Rooms).
		Str("banlist_backend", cfg.BanListBackend).
		Int("status_port", cfg.StatusPort).
		Bool("backup", cfg.BackupEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.BanListBackend == configs.BackendPostgres {
		pool, err = db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to open the ban list database")
		}
		defer pool.Close()
	}

	var backup storage.BackupService
	if cfg.BackupEnabled() {
		backup, err = storage.NewBackupService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize the backup storage")
		}
	}

	var (
		gw      *gateway.Client
		lookups gateway.Lookups = gateway.Disabled{}
	)
	if cfg.GatewayURL != "" {
		gw, err = gateway.NewClient(cfg.GatewayURL)
		if err != nil {
			logx.Fatal(err, "Failed to initialize the gateway client")
		}
		lookups = gateway.NewLookupClient(gw, lookupCacheSize, lookupCacheTTL)
	} else {
		logx.Warn("GATEWAY_URL is not set, lookups and privacy settings are disabled")
	}

	manager := chat.NewManager()
	for _, room := range cfg.Rooms {
		if err := startRoom(ctx, cfg, manager, room, pool, gw, lookups, backup); err != nil {
			logx.Fatal(err, "Failed to start room session", "room", room)
		}
	}

	router := handler.Router(ctx, &handler.AppDeps{Manager: manager, Config: cfg})

	serverAddr := fmt.Sprintf(":%d", cfg.StatusPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info("Status API starting", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Status API failed to start")
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- manager.Run(ctx) }()

	select {
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Starting graceful shutdown...")
	case err := <-runErr:
		if err != nil {
			logx.Error(err, "Room sessions stopped with an error")
		} else {
			logx.Info("All room sessions stopped.")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Status API forced to shutdown")
	}

	manager.Shutdown()

	logx.Info("roombot gracefully stopped.")
}

// startRoom loads the room policy and ban lists, connects to the room and registers its session.
func startRoom(
	ctx context.Context,
	cfg *configs.AppConfig,
	manager *chat.Manager,
	room string,
	pool *pgxpool.Pool,
	gw *gateway.Client,
	lookups gateway.Lookups,
	backup storage.BackupService,
) error {
	policy, err := configs.LoadRoomPolicy(cfg.ConfigPath, room)
	if err != nil {
		return err
	}

	var backend banlist.Backend
	if pool != nil {
		backend = banlist.NewPGBackend(pool, room)
	} else {
		backend, err = banlist.NewFileBackend(configs.RoomDir(cfg.ConfigPath, room))
		if err != nil {
			return err
		}
	}

	bans := banlist.NewStore(room, backend)
	if err := bans.Load(ctx); err != nil {
		return err
	}

	var privacy gateway.Privacy
	if gw != nil {
		privacy = gateway.NewPrivacyClient(gw, room)
	}

	transport := protocol.NewWSTransport(protocol.WSConfig{
		URL: cfg.RoomWSURL,
		Login: protocol.LoginPayload{
			Room:     room,
			Nick:     cfg.BotNick,
			Account:  cfg.BotAccount,
			Password: cfg.BotPassword,
		},
	})
	if err := transport.Connect(ctx); err != nil {
		return err
	}

	_, cerr := manager.AddRoom(chat.SessionConfig{
		Room:        room,
		Nick:        cfg.BotNick,
		Transport:   transport,
		Bans:        bans,
		Lookups:     lookups,
		Privacy:     privacy,
		Backup:      backup,
		Policy:      policy,
		WorkerLimit: cfg.WorkerLimit,
	})
	if cerr != nil {
		_ = transport.Disconnect()
		return cerr
	}
	return nil
}

// issueToken prints an admin token for the status API to stdout.
func issueToken(cfg *configs.AppConfig, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: roombot token <name>")
		os.Exit(2)
	}

	token, err := jwt.GenerateToken(args[0], jwt.RoleAdmin, cfg.JWTSecret, jwt.AdminTokenExpiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
