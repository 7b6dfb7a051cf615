package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"catatuang/api/internal/middleware"
	"catatuang/api/internal/models"
	"catatuang/api/internal/service"
)

type transactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionResponse(tx models.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Date:        tx.Date.Format("2006-01-02"),
		Category:    tx.Category,
		Amount:      tx.Amount,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
}

type addTransactionRequest struct {
	Type        string `json:"type" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

func (h HandlerSet) AddTransaction(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "date", "message": "expected YYYY-MM-DD"})
		return
	}

	tx, err := h.txService.Add(c.Request.Context(), sess, service.AddTransactionInput{
		Type:        models.TransactionType(req.Type),
		Date:        date,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": toTransactionResponse(tx)})
}

func (h HandlerSet) ListTransactions(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	offset := 0
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	txs, err := h.txService.List(c.Request.Context(), sess, models.TransactionType(c.Query("type")), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, toTransactionResponse(tx))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) DeleteTransaction(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "id", "message": "required"})
		return
	}

	if err := h.txService.Remove(c.Request.Context(), sess, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) TransactionSummary(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.txService.Summarize(c.Request.Context(), sess)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalIncome":  summary.TotalIncome,
		"totalExpense": summary.TotalExpense,
		"balance":      summary.Balance,
	})
}
