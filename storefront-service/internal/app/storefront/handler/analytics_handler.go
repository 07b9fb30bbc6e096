package handler

import (
	"net/http"

	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/gin-gonic/gin"
)

// GetOrderHistory - GET /orders/history?page=&limit=&status=&startDate=&endDate=
// Диапазон дат применяется только если заданы обе границы.
func (h *StorefrontHandler) GetOrderHistory(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	page, err := intQuery(c, "page", entity.DefaultPage)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	limit, err := intQuery(c, "limit", entity.DefaultLimit)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	query := entity.HistoryQuery{
		UserID: userID,
		Page:   page,
		Limit:  limit,
		Status: optionalFilter(c.Query("status"), sentinelAll),
	}

	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw != "" && endRaw != "" {
		from, err := parseDate(startRaw, false)
		if err != nil {
			badRequest(c, "startDate must be a date")
			return
		}
		to, err := parseDate(endRaw, true)
		if err != nil {
			badRequest(c, "endDate must be a date")
			return
		}
		query.Range = &entity.DateRange{From: from, To: to}
	}

	history, err := h.analytics.GetHistory(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *StorefrontHandler) GetOrderDetails(c *gin.Context) {
	details, err := h.analytics.GetDetails(c.Request.Context(), c.GetString(ctxUserID), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *StorefrontHandler) GetOrderStats(c *gin.Context) {
	stats, err := h.analytics.GetStats(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StorefrontHandler) Recommended(c *gin.Context) {
	items, err := h.ranking.Recommended(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.CatalogListResponse{Products: items})
}

func (h *StorefrontHandler) TopOffers(c *gin.Context) {
	items, err := h.ranking.TopOffers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.CatalogListResponse{Products: items})
}

func (h *StorefrontHandler) MostPopular(c *gin.Context) {
	items, err := h.ranking.MostPopular(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.CatalogListResponse{Products: items})
}

func (h *StorefrontHandler) FlashSale(c *gin.Context) {
	items, err := h.ranking.FlashSale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.EventListResponse{Events: items})
}

// LatestItems - GET /catalog/latest?store_id=&category_id=&type=&offset=&limit=
// store_id и category_id равные "0", а также type равный "all" не фильтруют.
func (h *StorefrontHandler) LatestItems(c *gin.Context) {
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	limit, err := intQuery(c, "limit", entity.DefaultLimit)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.ranking.LatestItems(c.Request.Context(), entity.LatestQuery{
		ShopID:     optionalFilter(c.Query("store_id"), sentinelNone),
		CategoryID: optionalFilter(c.Query("category_id"), sentinelNone),
		Type:       optionalFilter(c.Query("type"), sentinelAll),
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
