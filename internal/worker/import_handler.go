package worker

import (
	"context"
	"encoding/json"
	"errors"
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

type ImportTaskHandler struct {
	redis    *redis.Client
	cfg      *config.Config
	importer *service.ImportService
}

func NewImportTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *ImportTaskHandler {
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

	importer := service.NewImportService(
		uploadRepo,
		lineRepo,
		categoryRepo,
		bankAccountRepo,
		service.NewHTTPLedgerClient(cfg.LedgerBaseURL, cfg.LedgerTimeout),
		lifecycle,
		service.NewRedisImportLock(redisClient, cfg.ImportLockTTL),
		utils.GetLogger(),
	)

	return &ImportTaskHandler{
		redis:    redisClient,
		cfg:      cfg,
		importer: importer,
	}
}

type ImportTaskPayload struct {
	UploadID       int    `json:"upload_id"`
	UploadCode     string `json:"upload_code"`
	BusinessID     int    `json:"business_id"`
	BankAccountID  *int   `json:"bank_account_id"`
	AutoApproveAll bool   `json:"auto_approve_all"`
}

func (h *ImportTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := utils.GetLogger().WithField("upload_code", payload.UploadCode)
	log.Info("starting statement import")

	summary, err := h.importer.ImportLines(ctx, service.ImportParams{
		UploadID:       payload.UploadID,
		BusinessID:     payload.BusinessID,
		BankAccountID:  payload.BankAccountID,
		AutoApproveAll: payload.AutoApproveAll,
	})
	if err != nil {
		// Another worker already holds the lock; the first import wins
		// and retrying would double-post.
		var concurrent *service.ConcurrentImportError
		if errors.As(err, &concurrent) {
			log.Warn("import already in progress, skipping task")
			return nil
		}
		log.WithError(err).Error("statement import failed")
		return err
	}

	summaryKey := fmt.Sprintf("statement:import:summary:%d", payload.UploadID)
	if encoded, err := json.Marshal(summary); err == nil {
		h.redis.Set(ctx, summaryKey, encoded, 0)
	}

	log.WithField("message", summary.Message).Info("statement import finished")
	return nil
}
