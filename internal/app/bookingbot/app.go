package bookingbot

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/DenisKhanov/BookingBot/internal/booking/api"
	"github.com/DenisKhanov/BookingBot/internal/booking/config"
	"github.com/DenisKhanov/BookingBot/internal/logcfg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// App represents the application structure responsible for initializing dependencies
// and running the booking bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ServiceProvider returns the dependency container of the application.
func (a *App) ServiceProvider() *ServiceProvider {
	return a.serviceProvider
}

// Run starts the bot and blocks until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	return a.runTelegramBot(ctx)
}

// Close releases the resources held by the application.
func (a *App) Close() error {
	return a.serviceProvider.Close()
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	return logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// runTelegramBot polls updates and hands them to the booking bot until a shutdown signal arrives.
// Shutdown order: stop polling, stop the jobs, finish the queued messages.
func (a *App) runTelegramBot(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telegram, err := a.serviceProvider.TelegramAPI()
	if err != nil {
		return err
	}
	bot, err := a.serviceProvider.BookingBot(ctx)
	if err != nil {
		return err
	}
	runner, err := a.serviceProvider.Runner(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	runner.Start()

	// Queued messages are finished after the signal, so they must not see its cancellation
	work := context.WithoutCancel(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 // seconds timeout
	updates := telegram.GetUpdatesChan(ctx, updateConfig)

	logrus.Info("Booking bot is running")
	for update := range updates {
		msg, ok := api.IncomingMessage(update)
		if !ok {
			continue
		}
		if !bot.Dispatch(work, msg) {
			logrus.Warnf("Message from user %d dropped, bot is stopping", msg.UserID)
		}
	}

	logrus.Info("Received shutdown signal, stopping bot...")
	runner.Stop()
	bot.Close()
	return nil
}
