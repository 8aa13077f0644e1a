package main

import (
	"net/http"

	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/gin-gonic/gin"
)

func registerCustomerRoutes(g *gin.RouterGroup) {
	customers := g.Group("/customers")
	customers.GET("", listCustomersHandler())
	customers.GET("/next-cin", nextCustomerIdHandler())
	customers.GET("/:id", getCustomerHandler())
	customers.POST("", createCustomerHandler())
	customers.PUT("/:id", updateCustomerHandler())
	customers.DELETE("/:id", deleteCustomerHandler())
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateCustomerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		customer, err := models.UpdateCustomer(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func deleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		customer, err := models.DeleteCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func nextCustomerIdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cin, err := models.NextCustomerId(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cin_no": cin})
	}
}

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var search *string
		if v := c.Query("search"); v != "" {
			search = &v
		}
		customers, err := models.ListCustomers(c.Request.Context(), search)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}
