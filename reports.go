package main

import (
	"net/http"
	"time"

	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/gin-gonic/gin"
)

func registerReportRoutes(g *gin.RouterGroup) {
	reports := g.Group("/reports")
	reports.GET("", listReportsHandler())
	reports.GET("/summary", reportSummaryHandler())
	reports.GET("/:id", getReportHandler())
	reports.GET("/:id/download", downloadReportHandler())
	reports.POST("/generate", generateReportHandler())
}

type generateReportRequest struct {
	ReportType models.ReportType   `json:"report_type" binding:"required"`
	Format     models.ReportFormat `json:"format" binding:"required"`
	StartDate  string              `json:"start_date" binding:"required"`
	EndDate    string              `json:"end_date" binding:"required"`
}

func generateReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}

		report, err := models.GenerateReport(c.Request.Context(), models.NewReport{
			ReportType: req.ReportType,
			Format:     req.Format,
			StartDate:  start,
			EndDate:    end,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, report)
	}
}

func getReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		report, err := models.GetReport(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// downloadReportHandler redirects to the uploaded file once the dispatcher
// has marked the report READY.
func downloadReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		report, err := models.GetReport(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if report.Status != models.ReportStatusReady || report.FileUrl == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "report is not ready",
				"status": report.Status,
			})
			return
		}
		c.Redirect(http.StatusFound, *report.FileUrl)
	}
}

func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ReportFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, err := models.ListReports(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func reportSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := time.Parse("2006-01-02", c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		to, err := time.Parse("2006-01-02", c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		summary, err := models.GetReportSummary(c.Request.Context(), from, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
