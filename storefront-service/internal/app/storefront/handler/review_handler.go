package handler

import (
	"net/http"

	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"

	"github.com/gin-gonic/gin"
)

func (h *StorefrontHandler) SubmitEventReview(c *gin.Context) {
	h.submitReview(c, entity.ItemKindEvent)
}

func (h *StorefrontHandler) SubmitProductReview(c *gin.Context) {
	h.submitReview(c, entity.ItemKindProduct)
}

func (h *StorefrontHandler) submitReview(c *gin.Context, kind entity.ItemKind) {
	author, ok := currentAuthor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, formatValidationError(err))
		return
	}

	result, err := h.reconciler.SubmitReview(c.Request.Context(), entity.SubmitReviewInput{
		Kind:      kind,
		UserID:    author.ID,
		Author:    author,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Resync - ручная пересинхронизация тройки (позиция, заказ, пользователь)
func (h *StorefrontHandler) Resync(c *gin.Context) {
	var req entity.ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, formatValidationError(err))
		return
	}

	report, err := h.runner.Run(c.Request.Context(), entity.ResyncSourceManual, entity.ResyncInput{
		Kind:      req.Kind,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		UserID:    req.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *StorefrontHandler) ListRuns(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	runs, err := h.runner.ListRuns(c.Request.Context(), repository.RunFilter{
		Source:  entity.ResyncSource(c.Query("source")),
		Outcome: entity.ResyncOutcome(c.Query("outcome")),
		Limit:   limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.RunListResponse{Runs: runs, Total: len(runs)})
}

func (h *StorefrontHandler) GetRun(c *gin.Context) {
	run, err := h.runner.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}
