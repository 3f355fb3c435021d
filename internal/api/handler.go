package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Flotilla/internal/dispatch"
	"github.com/shaiso/Flotilla/internal/mq"
	"github.com/shaiso/Flotilla/internal/repo"
)

// InputPublisher публикует ввод погрузки в очередь.
type InputPublisher interface {
	PublishLoadInput(ctx context.Context, payload mq.LoadInputPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	manager      *dispatch.Manager
	scheduleRepo *repo.ScheduleRepo
	publisher    InputPublisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Manager      *dispatch.Manager
	ScheduleRepo *repo.ScheduleRepo
	Publisher    InputPublisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		manager:      cfg.Manager,
		scheduleRepo: cfg.ScheduleRepo,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}
