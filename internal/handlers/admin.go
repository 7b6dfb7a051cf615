package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catatuang/api/internal/middleware"
	"catatuang/api/internal/models"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listing, err := h.accountService.ListUsers(c.Request.Context(), sess)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":  toAccountResponses(listing.Pending),
		"active":   toAccountResponses(listing.Active),
		"inactive": toAccountResponses(listing.Inactive),
		"rejected": toAccountResponses(listing.Rejected),
	})
}

type approveRequest struct {
	Role string `json:"role"`
}

func (h HandlerSet) AdminApproveUser(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Body is optional; an empty role falls back to the requested role.
	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
			return
		}
	}

	account, err := h.accountService.Approve(c.Request.Context(), sess, c.Param("id"), models.Role(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

func (h HandlerSet) AdminRejectUser(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accountService.Reject(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) AdminChangeRole(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	account, err := h.accountService.ChangeRole(c.Request.Context(), sess, c.Param("id"), models.Role(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

func (h HandlerSet) AdminToggleUser(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accountService.ToggleStatus(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.txService.Stats(c.Request.Context(), sess)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":        stats.TotalUsers,
		"pendingUsers":      stats.PendingUsers,
		"totalTransactions": stats.TotalTransactions,
		"totalIncome":       stats.TotalIncome,
		"totalExpense":      stats.TotalExpense,
	})
}

func (h HandlerSet) AdminExport(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	key, err := h.exportService.Export(c.Request.Context(), sess)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

func toAccountResponses(accounts []models.Account) []accountResponse {
	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, toAccountResponse(account))
	}
	return resp
}
