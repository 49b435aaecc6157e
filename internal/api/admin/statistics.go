package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
)

const salesTimeLayout = time.DateTime

// salesQuery defaults to the last 30 days by day.
type salesQuery struct {
	Dimension string `form:"dimension"`
	StartTime string `form:"start_time"` // 2006-01-02 15:04:05
	EndTime   string `form:"end_time"`
}

// GetSalesStatistics buckets successful payments by day, month or year.
func GetSalesStatistics(c *gin.Context) {
	var q salesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	now := time.Now()
	startTime, endTime := now.AddDate(0, 0, -30), now
	var err error
	if q.StartTime != "" {
		if startTime, err = time.ParseInLocation(salesTimeLayout, q.StartTime, time.Local); err != nil {
			response.Error(c, apperr.Validation("invalid start time").WithField("start_time", "expected format 2006-01-02 15:04:05"))
			return
		}
	}
	if q.EndTime != "" {
		if endTime, err = time.ParseInLocation(salesTimeLayout, q.EndTime, time.Local); err != nil {
			response.Error(c, apperr.Validation("invalid end time").WithField("end_time", "expected format 2006-01-02 15:04:05"))
			return
		}
	}

	stats, err := service.Statistics.Sales(c.Request.Context(), startTime, endTime, service.TimeDimension(q.Dimension))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// GetDashboard returns the admin home page counters.
func GetDashboard(c *gin.Context) {
	dashboard, err := service.Statistics.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboard)
}
