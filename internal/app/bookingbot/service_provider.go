// Package bookingbot provides dependency injection and the run loop of the booking bot.
// It initializes and provides access to the stores, clients, services and jobs the bot needs.
package bookingbot

import (
	"context"
	"fmt"
	"sync"

	"github.com/DenisKhanov/BookingBot/internal/booking/api"
	"github.com/DenisKhanov/BookingBot/internal/booking/config"
	"github.com/DenisKhanov/BookingBot/internal/booking/directory"
	"github.com/DenisKhanov/BookingBot/internal/booking/jobs"
	"github.com/DenisKhanov/BookingBot/internal/booking/repository"
	"github.com/DenisKhanov/BookingBot/internal/booking/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for booking bot components.
// Every component is created on first use.
type ServiceProvider struct {
	cfg *config.Config

	// Storage
	db              *repository.DB
	reservationRepo *repository.ReservationRepository
	directoryRepo   *repository.DirectoryRepository

	// Clients
	rubitime *api.RubitimeAPI
	smsRu    *api.SmsRuAPI
	botAPI   *tgbotapi.BotAPI
	telegram *api.TelegramAPI

	// Services
	directory    *directory.Directory
	confirmation *service.Confirmation
	bookingBot   *service.BookingBot
	runner       *jobs.Runner

	dbErr     error
	botAPIErr error

	dbOnce           sync.Once
	reservationOnce  sync.Once
	directoryRepOnce sync.Once
	rubitimeOnce     sync.Once
	smsRuOnce        sync.Once
	botAPIOnce       sync.Once
	telegramOnce     sync.Once
	directoryOnce    sync.Once
	confirmationOnce sync.Once
	bookingBotOnce   sync.Once
	runnerOnce       sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	if cfg == nil {
		logrus.Fatal("ServiceProvider needs a configuration")
	}
	return &ServiceProvider{cfg: cfg}
}

// DB returns the opened database with the schema applied.
func (s *ServiceProvider) DB(ctx context.Context) (*repository.DB, error) {
	s.dbOnce.Do(func() {
		s.db, s.dbErr = repository.Open(ctx, s.cfg.EnvDBDriver, s.cfg.EnvDBDSN)
		if s.dbErr != nil {
			logrus.WithError(s.dbErr).Error("Failed to open database")
			return
		}
		logrus.Info("Database initialized")
	})
	return s.db, s.dbErr
}

// ReservationRepository returns the reservation store.
func (s *ServiceProvider) ReservationRepository(ctx context.Context) (*repository.ReservationRepository, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	s.reservationOnce.Do(func() {
		s.reservationRepo = repository.NewReservationRepository(db)
		logrus.Info("ReservationRepository initialized")
	})
	return s.reservationRepo, nil
}

// DirectoryRepository returns the cooperator and service store.
func (s *ServiceProvider) DirectoryRepository(ctx context.Context) (*repository.DirectoryRepository, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	s.directoryRepOnce.Do(func() {
		s.directoryRepo = repository.NewDirectoryRepository(db)
		logrus.Info("DirectoryRepository initialized")
	})
	return s.directoryRepo, nil
}

// Directory returns the cached directory.
func (s *ServiceProvider) Directory(ctx context.Context) (*directory.Directory, error) {
	repo, err := s.DirectoryRepository(ctx)
	if err != nil {
		return nil, err
	}
	s.directoryOnce.Do(func() {
		workday := s.cfg.WorkdayClose() - s.cfg.WorkdayOpen()
		s.directory = directory.NewDirectory(repo, s.cfg.CacheTTL(), workday, nil)
		logrus.Info("Directory initialized")
	})
	return s.directory, nil
}

// RubitimeAPI returns the schedule provider client.
func (s *ServiceProvider) RubitimeAPI() *api.RubitimeAPI {
	s.rubitimeOnce.Do(func() {
		s.rubitime = api.NewRubitimeAPI(s.cfg.EnvRubitimeEndpoint, s.cfg.EnvRubitimeAPIKey, s.cfg.EnvBranchID, s.cfg.ProviderTimeout())
		logrus.Info("RubitimeAPI initialized")
	})
	return s.rubitime
}

// SmsRuAPI returns the SMS gateway client, nil when no API id is configured.
func (s *ServiceProvider) SmsRuAPI() *api.SmsRuAPI {
	s.smsRuOnce.Do(func() {
		if s.cfg.EnvSmsRuAPIID == "" {
			logrus.Info("SMSRU_API_ID is empty, SMS gateway disabled")
			return
		}
		s.smsRu = api.NewSmsRuAPI(s.cfg.EnvSmsRuEndpoint, s.cfg.EnvSmsRuAPIID, s.cfg.ProviderTimeout())
		logrus.Info("SmsRuAPI initialized")
	})
	return s.smsRu
}

// Confirmation returns the SMS confirmation service.
func (s *ServiceProvider) Confirmation() *service.Confirmation {
	s.confirmationOnce.Do(func() {
		var sender service.CodeSender
		if sms := s.SmsRuAPI(); sms != nil {
			sender = sms
		}
		s.confirmation = service.NewConfirmation(sender, s.cfg.EnvPhoneConfirmation)
		logrus.Infof("Confirmation initialized, enabled: %t", s.confirmation.Enabled())
	})
	return s.confirmation
}

// BotAPI returns the Telegram Bot API client.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.cfg.EnvBotToken)
		if s.botAPIErr != nil {
			s.botAPIErr = fmt.Errorf("can't make telegram bot: %w", s.botAPIErr)
			return
		}
		s.botAPI.Debug = s.cfg.EnvBotDebug
		logrus.Infof("Bot API created successfully for %s", s.botAPI.Self.UserName)
	})
	return s.botAPI, s.botAPIErr
}

// TelegramAPI returns the chat transport.
func (s *ServiceProvider) TelegramAPI() (*api.TelegramAPI, error) {
	bot, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	s.telegramOnce.Do(func() {
		s.telegram = api.NewTelegramAPI(bot)
		logrus.Info("TelegramAPI initialized")
	})
	return s.telegram, nil
}

// BookingBot returns the booking conversation service.
func (s *ServiceProvider) BookingBot(ctx context.Context) (*service.BookingBot, error) {
	dir, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.ReservationRepository(ctx)
	if err != nil {
		return nil, err
	}
	telegram, err := s.TelegramAPI()
	if err != nil {
		return nil, err
	}

	s.bookingBotOnce.Do(func() {
		s.bookingBot = service.NewBookingBot(dir, s.RubitimeAPI(), reservations, s.Confirmation(), telegram, service.Options{
			PageSize:        s.cfg.EnvDatePageSize,
			WorkdayClose:    s.cfg.WorkdayClose(),
			DuplicateWindow: s.cfg.DuplicateWindow(),
			CodeMaxAttempts: s.cfg.EnvCodeMaxAttempts,
			Location:        s.cfg.Location(),
			IsAdmin:         s.cfg.IsAdmin,
		})
		logrus.Info("BookingBot initialized")
	})
	return s.bookingBot, nil
}

// Runner returns the job runner with the reminder and sync jobs scheduled.
func (s *ServiceProvider) Runner(ctx context.Context) (*jobs.Runner, error) {
	reservations, err := s.ReservationRepository(ctx)
	if err != nil {
		return nil, err
	}
	telegram, err := s.TelegramAPI()
	if err != nil {
		return nil, err
	}

	s.runnerOnce.Do(func() {
		s.runner = jobs.NewRunner(ctx)
		s.runner.Add(jobs.NewReminderJob(reservations, telegram, float64(s.cfg.EnvReminderSendRate), s.cfg.Location(), nil),
			s.cfg.ReminderInterval())
		s.runner.Add(jobs.NewSyncJob(reservations, s.RubitimeAPI(), s.cfg.SyncGracePeriod(), nil),
			s.cfg.SyncInterval())
		logrus.Info("Runner initialized")
	})
	return s.runner, nil
}

// Close releases the database connection if it was opened.
func (s *ServiceProvider) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
