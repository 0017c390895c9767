package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/wardrobe-ledger/internal/constants"
	handlershared "github.com/wardrobe-ledger/internal/http/handlers/shared"
	"github.com/wardrobe-ledger/internal/http/response"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/queue"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) reportRange(c *gin.Context) (service.ReportRangeInput, bool) {
	loc := h.location()
	start, err := handlershared.ParseTimeParam(c.Query("start"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return service.ReportRangeInput{}, false
	}
	end, err := handlershared.ParseRangeEndParam(c.Query("end"), loc)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
		return service.ReportRangeInput{}, false
	}
	return service.ReportRangeInput{Start: start, End: end}, true
}

// GetSalesReport 销售报表
func (h *Handler) GetSalesReport(c *gin.Context) {
	input, ok := h.reportRange(c)
	if !ok {
		return
	}
	groupBy := strings.ToLower(strings.TrimSpace(c.DefaultQuery("group_by", constants.ReportGroupByVariant)))
	if groupBy != constants.ReportGroupByVariant && groupBy != constants.ReportGroupByProduct {
		respondError(c, response.CodeBadRequest, "error.group_by_invalid", nil)
		return
	}
	report, err := h.ReportService.SalesReport(c.Request.Context(), input, groupBy)
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, report)
}

// GetDailyReport 日报
func (h *Handler) GetDailyReport(c *gin.Context) {
	input, ok := h.reportRange(c)
	if !ok {
		return
	}
	rows, err := h.ReportService.DailyReport(c.Request.Context(), input)
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, rows)
}

// GetTopProducts 畅销款排行
func (h *Handler) GetTopProducts(c *gin.Context) {
	input, ok := h.reportRange(c)
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		limit = parsed
	}
	rows, err := h.ReportService.TopProducts(c.Request.Context(), input, limit)
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, rows)
}

type dailyDigestRequest struct {
	Date string `json:"date"` // YYYY-MM-DD，空值为昨天
}

// TriggerDailyDigest 手动生成每日摘要；队列启用时交给 worker，否则直接计算返回
func (h *Handler) TriggerDailyDigest(c *gin.Context) {
	var req dailyDigestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	req.Date = strings.TrimSpace(req.Date)
	var day *time.Time
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, h.location())
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.date_range_invalid", nil)
			return
		}
		day = &parsed
	}

	if h.QueueClient.Enabled() {
		payload := queue.DailyDigestPayload{Date: req.Date}
		if err := h.QueueClient.EnqueueDailyDigest(payload); err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		logger.Infow("daily_digest_enqueued", "date", req.Date, "operator_id", c.GetString(handlershared.ContextOperatorID))
		response.Success(c, gin.H{"queued": true, "date": req.Date})
		return
	}

	digest, err := h.ReportService.BuildDailyDigest(c.Request.Context(), day)
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"queued": false, "digest": digest})
}
