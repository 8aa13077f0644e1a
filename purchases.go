package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/gin-gonic/gin"
)

func registerPurchaseRoutes(g *gin.RouterGroup) {
	purchases := g.Group("/purchases")
	purchases.GET("", listPurchasesHandler())
	purchases.GET("/returnable", listReturnablePurchasesHandler())
	purchases.GET("/next-number", nextPurchaseNumberHandler())
	purchases.GET("/:id", getPurchaseHandler())
	purchases.GET("/:id/returnable-items", listReturnableItemsHandler())
	purchases.POST("", createPurchaseHandler())
	purchases.POST("/:id/return", createPurchaseReturnHandler())
	purchases.PUT("/:id", updatePurchaseHandler())
	purchases.DELETE("/:id", deletePurchaseHandler())
}

func createPurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPurchase
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		purchase, err := models.CreatePurchase(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, purchase)
	}
}

func updatePurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdatePurchaseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		purchase, err := models.UpdatePurchase(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

func deletePurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		purchase, err := models.DeletePurchase(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

// createPurchaseReturnHandler accepts the return lines in the body; the URL
// names the purchase being returned against.
func createPurchaseReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewPurchaseReturn
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.ReturnReferenceId = id
		ret, err := models.CreatePurchaseReturn(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, ret)
	}
}

func getPurchaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		purchase, err := models.GetPurchase(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, purchase)
	}
}

func listPurchasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.PurchaseFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		purchases, err := models.ListPurchases(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, purchases)
	}
}

func listReturnablePurchasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		purchases, err := models.ListReturnablePurchases(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, purchases)
	}
}

func listReturnableItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		items, err := models.ListReturnableItems(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// nextPurchaseNumberHandler previews the next invoice number without
// consuming it.
func nextPurchaseNumberHandler() gin.HandlerFunc {
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
		invoiceNo, err := models.NextPurchaseInvoiceNo(c.Request.Context(), isReturn)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_no": invoiceNo})
	}
}
