package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"reconcile-web/internal/config"
	"reconcile-web/internal/models"
	"reconcile-web/internal/repository"
	"reconcile-web/internal/service"
	"reconcile-web/internal/utils"
	"reconcile-web/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type StatementHandler struct {
	uploadRepo   *repository.UploadRepository
	lineRepo     *repository.LineRepository
	lifecycle    *service.LifecycleService
	review       *service.ReviewService
	overlap      *service.OverlapGuard
	export       *service.ExportService
	parser       service.DocumentParser
	asynqClient  *asynq.Client
	redisClient  *redis.Client
	cfg          *config.Config
}

func NewStatementHandler(
	uploadRepo *repository.UploadRepository,
	lineRepo *repository.LineRepository,
	lifecycle *service.LifecycleService,
	review *service.ReviewService,
	overlap *service.OverlapGuard,
	export *service.ExportService,
	parser service.DocumentParser,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	cfg *config.Config,
) *StatementHandler {
	return &StatementHandler{
		uploadRepo:  uploadRepo,
		lineRepo:    lineRepo,
		lifecycle:   lifecycle,
		review:      review,
		overlap:     overlap,
		export:      export,
		parser:      parser,
		asynqClient: asynqClient,
		redisClient: redisClient,
		cfg:         cfg,
	}
}

// UploadStatement accepts a statement file, creates the upload record and
// queues the background parse. The response includes an advisory overlap
// check when the caller declared a statement period.
func (h *StatementHandler) UploadStatement(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)
	userID := c.Locals("user_id").(int)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	if err := h.lifecycle.ValidateFile(file.Filename, file.Size); err != nil {
		return h.serviceError(c, err)
	}

	var declaredAccount *string
	if v := c.FormValue("account_number"); v != "" {
		declaredAccount = &v
	}

	// Advisory pre-flight: warn about overlapping periods, never block.
	var overlapResult *models.OverlapResult
	startDate, endDate, err := declaredPeriod(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid declared statement period", err)
	}
	if startDate != nil && endDate != nil {
		overlapResult, err = h.overlap.CheckOverlap(businessID, declaredAccount, *startDate, *endDate)
		if err != nil {
			return h.serviceError(c, err)
		}
	}

	ext := filepath.Ext(file.Filename)
	filePath := filepath.Join(h.cfg.UploadPath, fmt.Sprintf("upload-%d-%d%s", businessID, time.Now().UnixNano(), ext))
	if err := c.SaveFile(file, filePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save file", err)
	}

	upload, err := h.lifecycle.StartUpload(service.StartUploadParams{
		BusinessID:            businessID,
		UserID:                userID,
		OriginalFilename:      file.Filename,
		FilePath:              filePath,
		FileSizeBytes:         file.Size,
		DeclaredAccountNumber: declaredAccount,
	})
	if err != nil {
		return h.serviceError(c, err)
	}

	if err := h.enqueue(worker.TaskStatementParse, worker.ParseTaskPayload{
		UploadID:   upload.ID,
		UploadCode: upload.UploadCode,
	}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Failed to queue parse task", err)
	}

	return utils.SuccessResponse(c, "Statement uploaded, parsing started", fiber.Map{
		"upload":  upload,
		"overlap": overlapResult,
	})
}

// CheckOverlap is the explicit pre-flight endpoint.
func (h *StatementHandler) CheckOverlap(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	startDate, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
	}
	endDate, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "end_date must be YYYY-MM-DD", err)
	}

	var accountNumber *string
	if v := c.Query("account_number"); v != "" {
		accountNumber = &v
	}

	result, err := h.overlap.CheckOverlap(businessID, accountNumber, startDate, endDate)
	if err != nil {
		return h.serviceError(c, err)
	}
	return utils.SuccessResponse(c, "Overlap check completed", result)
}

func (h *StatementHandler) GetUploads(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	uploads, total, err := h.uploadRepo.List(businessID, params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve uploads", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Uploads retrieved successfully", fiber.Map{
		"uploads": uploads,
	}, pagination)
}

func (h *StatementHandler) GetUploadDetail(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	lines, total, err := h.lineRepo.GetPageByUploadID(upload.ID, params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve lines", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Upload retrieved successfully", fiber.Map{
		"upload": upload,
		"lines":  lines,
	}, pagination)
}

// GetErrorLines returns only the lines that failed ledger posting, with
// their reasons, so failed lines can be re-reviewed and retried.
func (h *StatementHandler) GetErrorLines(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	lines, err := h.lineRepo.GetErrorsByUploadID(upload.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve error lines", err)
	}
	return utils.SuccessResponse(c, "Error lines retrieved successfully", fiber.Map{
		"upload": upload,
		"lines":  lines,
	})
}

func (h *StatementHandler) UpdateLine(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	lineID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid line ID", err)
	}

	var req models.LineUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	line, err := h.review.UpdateLine(businessID, lineID, req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return utils.SuccessResponse(c, "Line updated successfully", line)
}

func (h *StatementHandler) BulkUpdateLines(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	var req models.BulkLineUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	result, err := h.review.BulkUpdate(businessID, req)
	if err != nil {
		return h.serviceError(c, err)
	}

	message := fmt.Sprintf("%d lines updated, %d failed", len(result.Updated), len(result.Errors))
	return utils.SuccessResponse(c, message, result)
}

type startImportRequest struct {
	BankAccountID  *int `json:"bank_account_id"`
	AutoApproveAll bool `json:"auto_approve_all"`
}

// StartImport queues the background import. The committer itself holds the
// per-upload lock; this guard just gives the caller a fast answer.
func (h *StatementHandler) StartImport(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	if upload.Status == models.UploadStatusImporting {
		return h.serviceError(c, &service.ConcurrentImportError{UploadID: upload.ID})
	}
	if upload.Status != models.UploadStatusParsed && upload.Status != models.UploadStatusCompleted {
		return h.serviceError(c, &service.InvalidTransitionError{
			Entity: "upload", From: upload.Status, To: models.UploadStatusImporting,
			Reason: "only a parsed upload can be imported",
		})
	}

	var req startImportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}

	if err := h.enqueue(worker.TaskStatementImport, worker.ImportTaskPayload{
		UploadID:       upload.ID,
		UploadCode:     upload.UploadCode,
		BusinessID:     businessID,
		BankAccountID:  req.BankAccountID,
		AutoApproveAll: req.AutoApproveAll,
	}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Failed to queue import task", err)
	}

	return utils.SuccessResponse(c, "Import started", fiber.Map{
		"upload": upload,
	})
}

func (h *StatementHandler) CancelUpload(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid upload ID", err)
	}

	upload, err := h.lifecycle.CancelUpload(businessID, id)
	if err != nil {
		return h.serviceError(c, err)
	}
	return utils.SuccessResponse(c, "Upload cancelled", upload)
}

// DeleteUpload removes a finished upload together with all of its lines.
func (h *StatementHandler) DeleteUpload(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	if !upload.IsTerminal() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Only completed, failed or cancelled uploads can be deleted", nil)
	}

	if err := h.uploadRepo.Delete(upload.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete upload", err)
	}
	return utils.SuccessResponse(c, "Upload deleted", nil)
}

// GetSupportedFormats lists the statement formats the parser understands.
func (h *StatementHandler) GetSupportedFormats(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, "Supported formats retrieved successfully", h.parser.SupportedFormats())
}

func (h *StatementHandler) ExportUpload(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	var lines []models.StatementLine
	if c.QueryBool("errors_only") {
		lines, err = h.lineRepo.GetErrorsByUploadID(upload.ID)
	} else {
		lines, err = h.lineRepo.GetByUploadID(upload.ID)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve lines", err)
	}

	exportFileName := fmt.Sprintf("export_%s_%s.xlsx", upload.UploadCode, time.Now().Format("20060102_150405"))
	exportPath := filepath.Join(h.cfg.ExportPath, exportFileName)
	if err := h.export.ExportLines(lines, exportPath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export lines", err)
	}

	return c.Download(exportPath, exportFileName)
}

func (h *StatementHandler) GetUploadProgress(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return h.serviceError(c, err)
	}

	progress := ""
	if h.redisClient != nil {
		progressKey := fmt.Sprintf("statement:progress:%d", upload.ID)
		progress, _ = h.redisClient.Get(c.Context(), progressKey).Result()
	}

	return utils.SuccessResponse(c, "Progress retrieved successfully", fiber.Map{
		"status":   upload.Status,
		"progress": progress,
		"upload":   upload,
	})
}

func (h *StatementHandler) ownedUpload(c *fiber.Ctx) (*models.StatementUpload, error) {
	businessID := c.Locals("business_id").(int)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, service.NewValidationError("invalid upload ID %q", c.Params("id"))
	}

	upload, err := h.uploadRepo.GetByID(id)
	if err != nil {
		return nil, service.NewValidationError("upload %d not found", id)
	}
	if upload.BusinessID != businessID {
		return nil, service.NewValidationError("upload %d not found", id)
	}
	return upload, nil
}

func (h *StatementHandler) enqueue(taskType string, payload interface{}) error {
	if h.asynqClient == nil {
		return errors.New("background job processing is not available (Redis not connected)")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = h.asynqClient.Enqueue(asynq.NewTask(taskType, encoded))
	return err
}

// serviceError maps the service error taxonomy onto HTTP statuses.
func (h *StatementHandler) serviceError(c *fiber.Ctx, err error) error {
	var validation *service.ValidationError
	var transition *service.InvalidTransitionError
	var concurrent *service.ConcurrentImportError

	switch {
	case errors.As(err, &validation):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, validation.Message, nil)
	case errors.As(err, &transition):
		return utils.ErrorResponse(c, fiber.StatusConflict, transition.Error(), nil)
	case errors.As(err, &concurrent):
		return utils.ErrorResponse(c, fiber.StatusConflict, concurrent.Error(), nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", err)
	}
}

func declaredPeriod(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	rawStart, rawEnd := c.FormValue("start_date"), c.FormValue("end_date")
	if rawStart == "" || rawEnd == "" {
		return nil, nil, nil
	}
	start, err := time.Parse("2006-01-02", rawStart)
	if err != nil {
		return nil, nil, err
	}
	end, err := time.Parse("2006-01-02", rawEnd)
	if err != nil {
		return nil, nil, err
	}
	return &start, &end, nil
}
