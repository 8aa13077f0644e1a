package main

import (
	"net/http"
	"time"

	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/gin-gonic/gin"
)

func registerSupplierRoutes(g *gin.RouterGroup) {
	suppliers := g.Group("/suppliers")
	suppliers.GET("", listSuppliersHandler())
	suppliers.GET("/statement", supplierStatementHandler())
	suppliers.GET("/:id", getSupplierHandler())
	suppliers.POST("", createSupplierHandler())
	suppliers.PUT("/:id", updateSupplierHandler())
	suppliers.DELETE("/:id", deleteSupplierHandler())

	transactions := g.Group("/supplier-transactions")
	transactions.GET("", listSupplierTransactionsHandler())
	transactions.GET("/:id", getSupplierTransactionHandler())
	transactions.POST("", createSupplierTransactionHandler())
	transactions.PUT("/:id", updateSupplierTransactionHandler())
	transactions.DELETE("/:id", deleteSupplierTransactionHandler())
}

func createSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSupplier
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		supplier, err := models.CreateSupplier(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, supplier)
	}
}

func updateSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateSupplierInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		supplier, err := models.UpdateSupplier(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func deleteSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		supplier, err := models.DeleteSupplier(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func getSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		supplier, err := models.GetSupplier(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func listSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.SupplierFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		suppliers, err := models.ListSuppliers(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, suppliers)
	}
}

func supplierStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query struct {
			SupplierId *int   `form:"supplier"`
			StartDate  string `form:"start_date"`
			EndDate    string `form:"end_date"`
		}
		if err := c.ShouldBindQuery(&query); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := time.Parse("2006-01-02", query.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		end, err := time.Parse("2006-01-02", query.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}

		statement, err := models.GetSupplierStatement(c.Request.Context(), query.SupplierId, start, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func createSupplierTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSupplierTransaction
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		txn, err := models.CreateSupplierTransaction(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func updateSupplierTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateSupplierTransactionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		txn, err := models.UpdateSupplierTransaction(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func deleteSupplierTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		txn, err := models.DeleteSupplierTransaction(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func getSupplierTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		txn, err := models.GetSupplierTransaction(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func listSupplierTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.SupplierTransactionFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		txns, err := models.ListSupplierTransactions(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txns)
	}
}
