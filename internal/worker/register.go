package worker

import (
	"reconcile-web/internal/config"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Task type names shared with the enqueueing handlers.
const (
	TaskStatementParse  = "statement:parse"
	TaskStatementImport = "statement:import"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redis *redis.Client, cfg *config.Config) {
	parseHandler := NewParseTaskHandler(db, redis, cfg)
	importHandler := NewImportTaskHandler(db, redis, cfg)

	mux.HandleFunc(TaskStatementParse, parseHandler.Handle)
	mux.HandleFunc(TaskStatementImport, importHandler.Handle)
}
