package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"reconcile-web/internal/config"
	"reconcile-web/internal/parser"
	"reconcile-web/internal/repository"
	"reconcile-web/internal/service"
	"reconcile-web/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type ParseTaskHandler struct {
	redis     *redis.Client
	cfg       *config.Config
	lifecycle *service.LifecycleService
}

func NewParseTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *ParseTaskHandler {
	uploadRepo := repository.NewUploadRepository(db)
	lineRepo := repository.NewLineRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)

	lifecycle := service.NewLifecycleService(
		uploadRepo,
		lineRepo,
		categoryRepo,
		bankAccountRepo,
		parser.DefaultRegistry(),
		service.NewRuleCategorizer(categoryRepo),
		cfg,
		utils.GetLogger(),
	)

	return &ParseTaskHandler{
		redis:     redisClient,
		cfg:       cfg,
		lifecycle: lifecycle,
	}
}

type ParseTaskPayload struct {
	UploadID   int    `json:"upload_id"`
	UploadCode string `json:"upload_code"`
}

func (h *ParseTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ParseTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := utils.GetLogger().WithField("upload_code", payload.UploadCode)
	log.Info("starting statement parse")

	if err := h.lifecycle.RunParse(payload.UploadID); err != nil {
		log.WithError(err).Error("statement parse failed")
		return err
	}

	// Callers poll upload state; the progress key only backs the progress
	// endpoint for the UI.
	progressKey := fmt.Sprintf("statement:progress:%d", payload.UploadID)
	h.redis.Set(ctx, progressKey, "100.00", 0)

	log.Info("statement parse finished")
	return nil
}
