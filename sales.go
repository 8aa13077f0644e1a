package main

import (
	"fmt"
	"net/http"
	"strconv"

	"bitbucket.org/truebittech/retail_backend/models"
	"bitbucket.org/truebittech/retail_backend/reports"
	"github.com/gin-gonic/gin"
)

func registerSaleRoutes(g *gin.RouterGroup) {
	sales := g.Group("/sales")
	sales.GET("", listSalesHandler())
	sales.GET("/last-invoice", lastSaleInvoiceHandler())
	sales.GET("/next-number", nextSaleNumberHandler())
	sales.GET("/:id", getSaleHandler())
	sales.GET("/:id/invoice.pdf", saleInvoicePdfHandler())
	sales.POST("", createSaleHandler())
	sales.POST("/:id/return", createSaleReturnHandler())
	sales.PUT("/:id", updateSaleHandler())
	sales.DELETE("/:id", deleteSaleHandler())
}

func createSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sale, err := models.CreateSale(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, sale)
	}
}

func updateSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sale, err := models.UpdateSale(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sale)
	}
}

func deleteSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		sale, err := models.DeleteSale(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sale)
	}
}

func createSaleReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ret, err := models.CreateSaleReturn(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, ret)
	}
}

func getSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		sale, err := models.GetSale(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sale)
	}
}

func listSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.SaleFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sales, err := models.ListSales(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sales)
	}
}

func lastSaleInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := models.GetLastSaleInvoice(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func nextSaleNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		isReturn := false
		if v := c.Query("is_return"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "is_return must be a boolean"})
				return
			}
			isReturn = parsed
		}
		invoiceNo, err := models.NextSaleInvoiceNo(c.Request.Context(), isReturn)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_no": invoiceNo})
	}
}

func saleInvoicePdfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		sale, err := models.GetSale(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		pdf, err := reports.RenderSaleInvoicePDF(c.Request.Context(), sale)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", sale.InvoiceNo))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
