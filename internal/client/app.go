package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/workers"
	"github.com/MKhiriev/go-mail-sync/models"
)

// credentials holds the account identity the engine daemon runs under. The
// master key never leaves the process; it is handed to the scheduler for the
// lifetime of the session and cleared on shutdown.
type credentials struct {
	email        string
	password     string
	totpCode     string
	backupCode   string
	masterSecret string
}

// App is the headless engine runtime: it authenticates against the remote
// store, runs one full sync, then keeps the background scheduler and queue
// processing alive until the process receives a termination signal.
type App struct {
	services *service.ClientServices
	logger   *logger.Logger
}

// NewApp wires the engine services into a runnable application.
func NewApp(services *service.ClientServices, logger *logger.Logger) (*App, error) {
	if services == nil {
		return nil, errors.New("no services were given")
	}

	return &App{services: services, logger: logger}, nil
}

// Run implements [Client]. It blocks until SIGTERM, SIGINT, or SIGQUIT.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	creds, err := credentialsFromEnv()
	if err != nil {
		return err
	}

	if err = a.login(ctx, creds); err != nil {
		return err
	}
	defer a.services.AuthService.Logout()

	a.services.SyncJob.SetMasterSecret(creds.masterSecret)
	defer a.services.SyncJob.SetMasterSecret("")

	if result, err := a.services.EngineService.SyncTrigger(ctx, creds.masterSecret); err != nil {
		// queued changes survive a failed first pass and retry on the ticker
		a.logger.Warn().Err(err).Msg("initial sync failed")
	} else {
		a.logger.Info().Int("types", len(result.Outcomes)).Int("conflicts", len(result.Conflicts)).Msg("initial sync finished")
	}

	workers.NewWorkers(newSchedulerWorker(ctx, a.services.SyncJob)).Run()

	<-ctx.Done()

	a.services.SyncJob.Stop()
	a.logger.Info().Msg("engine stopped gracefully")

	return nil
}

func (a *App) login(ctx context.Context, creds credentials) error {
	req := models.LoginRequest{
		Email:      creds.email,
		Password:   creds.password,
		TOTPCode:   creds.totpCode,
		BackupCode: creds.backupCode,
	}

	err := a.services.AuthService.Login(ctx, req)
	if err == nil {
		return nil
	}
	if errors.Is(err, adapter.ErrTwoFactorRequired) && creds.totpCode == "" && creds.backupCode == "" {
		return fmt.Errorf("account has two-factor enabled, set MAILSYNC_TOTP_CODE or MAILSYNC_BACKUP_CODE: %w", err)
	}

	return fmt.Errorf("login failed: %w", err)
}

// credentialsFromEnv reads the daemon identity from the environment. Email,
// password, and master key are required; a one-time code is only needed for
// accounts with two-factor enabled.
func credentialsFromEnv() (credentials, error) {
	creds := credentials{
		email:        os.Getenv("MAILSYNC_EMAIL"),
		password:     os.Getenv("MAILSYNC_PASSWORD"),
		totpCode:     os.Getenv("MAILSYNC_TOTP_CODE"),
		backupCode:   os.Getenv("MAILSYNC_BACKUP_CODE"),
		masterSecret: os.Getenv("MAILSYNC_MASTER_KEY"),
	}

	switch {
	case creds.email == "":
		return credentials{}, errors.New("MAILSYNC_EMAIL is not set")
	case creds.password == "":
		return credentials{}, errors.New("MAILSYNC_PASSWORD is not set")
	case creds.masterSecret == "":
		return credentials{}, errors.New("MAILSYNC_MASTER_KEY is not set")
	}

	return creds, nil
}
