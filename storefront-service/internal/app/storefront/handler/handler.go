package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"promomarket/pkg/logger"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Значения-заглушки, которыми фронтенд обозначает отсутствие фильтра
const (
	sentinelNone = "0"
	sentinelAll  = "all"
	dateLayout   = "2006-01-02"
)

// StorefrontHandler - тонкий HTTP слой поверх реконсилятора и аналитики
type StorefrontHandler struct {
	reconciler service.ReviewReconcilerInterface
	analytics  service.OrderAnalyticsInterface
	ranking    service.CatalogRankingInterface
	runner     service.ResyncRunnerInterface
	validator  *validator.Validate
}

func NewStorefrontHandler(
	reconciler service.ReviewReconcilerInterface,
	analytics service.OrderAnalyticsInterface,
	ranking service.CatalogRankingInterface,
	runner service.ResyncRunnerInterface,
) *StorefrontHandler {
	return &StorefrontHandler{
		reconciler: reconciler,
		analytics:  analytics,
		ranking:    ranking,
		runner:     runner,
		validator:  validator.New(),
	}
}

// respondError переводит класс ошибки сервиса в HTTP статус
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindValidationFailed:
		status = http.StatusBadRequest
	case service.KindInconsistent:
		status = http.StatusConflict
	}

	if status != http.StatusInternalServerError {
		message = err.Error()
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			message = svcErr.Message
		}
	} else {
		requestID, _ := c.Get(logger.RequestIDKey)
		logger.Error().
			Err(err).
			Interface("request_id", requestID).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}

	c.JSON(status, entity.ErrorResponse{
		Error:   string(service.KindOf(err)),
		Message: message,
	})
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			return validationErrors[0].Field() + " is " + validationErrors[0].Tag()
		}
	}
	return "Validation failed"
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{
		Error:   string(service.KindValidationFailed),
		Message: message,
	})
}

// intQuery читает целочисленный параметр; отсутствующий параметр дает значение по умолчанию
func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return value, nil
}

// optionalFilter возвращает nil для пустого значения и для заглушек
func optionalFilter(value string, sentinels ...string) *string {
	if value == "" {
		return nil
	}
	for _, s := range sentinels {
		if value == s {
			return nil
		}
	}
	return &value
}

// parseDate принимает RFC3339 или YYYY-MM-DD; endOfDay сдвигает дату без времени на конец дня
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
