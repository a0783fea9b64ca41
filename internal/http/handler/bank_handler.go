package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andeslabs/bancora/internal/service"
)

// BankHandler exposes the aggregated banking-data endpoints.
type BankHandler struct {
	banks *service.BankService
}

// NewBankHandler wires the handler.
func NewBankHandler(banks *service.BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

// Institutions lists available banking institutions.
func (h *BankHandler) Institutions(c *gin.Context) {
	institutions, err := h.banks.Institutions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, institutions)
}

// Accounts lists accounts for a link.
func (h *BankHandler) Accounts(c *gin.Context) {
	accounts, err := h.banks.Accounts(c.Request.Context(), c.Param("link"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// Transactions returns transactions, derived balance metrics and account
// detail for an account.
func (h *BankHandler) Transactions(c *gin.Context) {
	report, err := h.banks.TransactionReport(
		c.Request.Context(),
		c.Param("link"),
		c.Param("account"),
		c.Query("date_from"),
		c.Query("date_to"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Balance returns derived balance metrics for an account.
func (h *BankHandler) Balance(c *gin.Context) {
	kpi, err := h.banks.Balance(c.Request.Context(), c.Param("link"), c.Param("account"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpi)
}

// CreateLink registers a new provider link for an institution.
func (h *BankHandler) CreateLink(c *gin.Context) {
	var req struct {
		Institution string            `json:"institution"`
		Credentials map[string]string `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid payload"})
		return
	}
	if strings.TrimSpace(req.Institution) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Institution is required"})
		return
	}
	if req.Credentials == nil {
		req.Credentials = map[string]string{}
	}

	page, err := h.banks.CreateLink(c.Request.Context(), req.Institution, req.Credentials)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
