package handler

import (
	"reconcile-web/internal/repository"
	"reconcile-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// MasterHandler serves the reference data the review screen needs:
// categories, GL accounts and registered bank accounts.
type MasterHandler struct {
	categoryRepo    *repository.CategoryRepository
	bankAccountRepo *repository.BankAccountRepository
}

func NewMasterHandler(categoryRepo *repository.CategoryRepository, bankAccountRepo *repository.BankAccountRepository) *MasterHandler {
	return &MasterHandler{
		categoryRepo:    categoryRepo,
		bankAccountRepo: bankAccountRepo,
	}
}

func (h *MasterHandler) GetCategories(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	categories, err := h.categoryRepo.ListCategories(businessID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve categories", err)
	}
	return utils.SuccessResponse(c, "Categories retrieved successfully", categories)
}

func (h *MasterHandler) GetGLAccounts(c *fiber.Ctx) error {
	accounts, err := h.categoryRepo.ListGLAccounts()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve GL accounts", err)
	}
	return utils.SuccessResponse(c, "GL accounts retrieved successfully", accounts)
}

func (h *MasterHandler) GetBankAccounts(c *fiber.Ctx) error {
	businessID := c.Locals("business_id").(int)

	accounts, err := h.bankAccountRepo.ListByBusiness(businessID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve bank accounts", err)
	}
	return utils.SuccessResponse(c, "Bank accounts retrieved successfully", accounts)
}
