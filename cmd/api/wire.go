package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"pawn-settlement/internal/adapter/repository/mysql"
	"pawn-settlement/internal/config"
	"pawn-settlement/internal/infrastructure/db"
	"pawn-settlement/internal/notify"
	"pawn-settlement/internal/projection"
	"pawn-settlement/internal/slip"
	"pawn-settlement/internal/usecase/action"
	"pawn-settlement/internal/usecase/investor"
	"pawn-settlement/internal/usecase/penalty"
	"pawn-settlement/internal/usecase/redemption"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"gorm.io/gorm"
)

// app holds the process-wide clients and usecases. Everything is built once here.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	db         *gorm.DB
	dispatcher *notify.Dispatcher

	actions     *action.Usecase
	penalties   *penalty.Usecase
	redemptions *redemption.Usecase
	investors   *investor.Usecase
}

func loadConfig(log *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PlatformFeeUnset() {
		log.Warn("PLATFORM_FEE_RATE not set; contracts without their own rate pay the investor all interest")
	}
	return cfg, nil
}

func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sender, err := newSender(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyTimeout, log)

	httpClient := &http.Client{Timeout: cfg.SlipVerifyTimeout}
	verifier := slip.NewGuarded(slip.NewHTTPVerifier(httpClient, cfg.SlipVerifyURL), cfg.SlipVerifyTimeout, log)

	uow := mysql.NewGormUoW(gdb)
	contracts := mysql.NewContractRepository(gdb)
	projector := projection.NewUpdater(nil)

	return &app{
		cfg:        cfg,
		log:        log,
		db:         gdb,
		dispatcher: dispatcher,
		actions: action.NewUsecase(action.Deps{
			UoW:          uow,
			Actions:      mysql.NewActionRepository(gdb),
			Verifier:     verifier,
			Notifier:     dispatcher,
			Projector:    projector,
			Log:          log.With(slog.String("component", "action")),
			SupportPhone: cfg.SupportPhone,
		}),
		penalties: penalty.NewUsecase(penalty.Deps{
			UoW:          uow,
			Contracts:    contracts,
			Penalties:    mysql.NewPenaltyRepository(gdb),
			Verifier:     verifier,
			Notifier:     dispatcher,
			Projector:    projector,
			Log:          log.With(slog.String("component", "penalty")),
			DailyRate:    cfg.PenaltyDailyRate,
			SupportPhone: cfg.SupportPhone,
		}),
		redemptions: redemption.NewUsecase(redemption.Deps{
			UoW:                 uow,
			Redemptions:         mysql.NewRedemptionRepository(gdb),
			Notifier:            dispatcher,
			Projector:           projector,
			Log:                 log.With(slog.String("component", "redemption")),
			PlatformFeeRate:     cfg.PlatformFeeRate,
			PlatformDeliveryFee: cfg.PlatformDeliveryFee,
		}),
		investors: investor.NewUsecase(contracts, cfg.Tiers, log.With(slog.String("component", "investor"))),
	}, nil
}

// newSender picks the notification transport. Drop-point mail goes over SMTP whenever
// SMTP_HOST is set, except with sqs where a downstream worker owns every channel.
func newSender(ctx context.Context, cfg *config.Config) (notify.Sender, error) {
	var mail notify.Sender
	if cfg.SMTPHost != "" {
		mail = notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	switch cfg.NotifyTransport {
	case config.TransportSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSQSSender(sqs.NewFromConfig(awsCfg), cfg.NotifySQSQueueURL), nil
	case config.TransportLine:
		line := notify.NewLineSender(&http.Client{Timeout: cfg.NotifyTimeout}, cfg.LineAPIBase, cfg.LineChannelToken)
		return notify.Router{Users: line, DropPoints: mail}, nil
	default:
		return notify.Router{DropPoints: mail}, nil
	}
}

func (a *app) close() {
	a.dispatcher.Wait()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
