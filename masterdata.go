package main

import (
	"net/http"

	"bitbucket.org/truebittech/retail_backend/middlewares"
	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/gin-gonic/gin"
)

func registerMasterDataRoutes(g *gin.RouterGroup) {
	stores := g.Group("/stores")
	stores.GET("", listStoresHandler())
	stores.GET("/:id", getStoreHandler())
	stores.POST("", middlewares.RequireAdmin(), createStoreHandler())
	stores.PUT("/:id", middlewares.RequireAdmin(), updateStoreHandler())
	stores.DELETE("/:id", middlewares.RequireAdmin(), deleteStoreHandler())

	users := g.Group("/users", middlewares.RequireAdmin())
	users.GET("", listStaffHandler())
	users.POST("", registerUserHandler())
	users.PUT("/:id", updateStaffHandler())
	users.DELETE("/:id", deleteStaffHandler())

	g.GET("/registrations", middlewares.RequireAdmin(), listRegistrationsHandler())

	categories := g.Group("/categories")
	categories.GET("", listCategoriesHandler())
	categories.GET("/:id", getCategoryHandler())
	categories.POST("", createCategoryHandler())
	categories.PUT("/:id", updateCategoryHandler())
	categories.DELETE("/:id", deleteCategoryHandler())

	taxes := g.Group("/taxes")
	taxes.GET("", listTaxesHandler())
	taxes.GET("/:id", getTaxHandler())
	taxes.POST("", createTaxHandler())
	taxes.PUT("/:id", updateTaxHandler())
	taxes.DELETE("/:id", deleteTaxHandler())

	units := g.Group("/units")
	units.GET("", listUnitsHandler())
	units.GET("/:id", getUnitHandler())
	units.POST("", createUnitHandler())
	units.PUT("/:id", updateUnitHandler())
	units.DELETE("/:id", deleteUnitHandler())

	printers := g.Group("/printers")
	printers.GET("", listPrintersHandler())
	printers.GET("/:id", getPrinterHandler())
	printers.POST("", createPrinterHandler())
	printers.PUT("/:id", updatePrinterHandler())
	printers.DELETE("/:id", deletePrinterHandler())

	cards := g.Group("/privilege-cards")
	cards.GET("", listPrivilegeCardsHandler())
	cards.GET("/:id", getPrivilegeCardHandler())
	cards.POST("", createPrivilegeCardHandler())
	cards.PUT("/:id", updatePrivilegeCardHandler())
	cards.DELETE("/:id", deletePrivilegeCardHandler())

	g.GET("/login-settings", getLoginSettingsHandler())
	g.PUT("/login-settings", middlewares.RequireAdmin(), updateLoginSettingsHandler())
}

/* stores */

func createStoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStore
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		store, err := models.CreateStore(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, store)
	}
}

func updateStoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewStore
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		store, err := models.UpdateStore(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

func deleteStoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		store, err := models.DeleteStore(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

func getStoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		store, err := models.GetStore(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

func listStoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stores, err := models.ListStores(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stores)
	}
}

/* users */

func registerUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := models.RegisterUser(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func listStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, err := models.ListStaff(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, staff)
	}
}

func updateStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := models.UpdateStaff(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func deleteStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		user, err := models.DeleteStaff(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func listRegistrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := models.ListRegistrations(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

/* categories */

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category, err := models.CreateCategory(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func updateCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category, err := models.UpdateCategory(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		category, err := models.DeleteCategory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func getCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		category, err := models.GetCategory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func listCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := models.ListCategories(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

/* taxes */

func createTaxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTax
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tax, err := models.CreateTax(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, tax)
	}
}

func updateTaxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewTax
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tax, err := models.UpdateTax(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tax)
	}
}

func deleteTaxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		tax, err := models.DeleteTax(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tax)
	}
}

func getTaxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		tax, err := models.GetTax(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tax)
	}
}

func listTaxesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		taxes, err := models.ListTaxes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, taxes)
	}
}

/* units */

func createUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUnit
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		unit, err := models.CreateUnit(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, unit)
	}
}

func updateUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewUnit
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		unit, err := models.UpdateUnit(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, unit)
	}
}

func deleteUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		unit, err := models.DeleteUnit(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, unit)
	}
}

func getUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		unit, err := models.GetUnit(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, unit)
	}
}

func listUnitsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var unitType *models.UnitType
		if v := c.Query("type"); v != "" {
			t := models.UnitType(v)
			unitType = &t
		}
		units, err := models.ListUnits(c.Request.Context(), unitType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, units)
	}
}

/* printers */

func createPrinterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPrinterConfig
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		printer, err := models.CreatePrinterConfig(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, printer)
	}
}

func updatePrinterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewPrinterConfig
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		printer, err := models.UpdatePrinterConfig(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, printer)
	}
}

func deletePrinterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		printer, err := models.DeletePrinterConfig(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, printer)
	}
}

func getPrinterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		printer, err := models.GetPrinterConfig(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, printer)
	}
}

func listPrintersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		printers, err := models.ListPrinterConfigs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, printers)
	}
}

/* privilege cards */

func createPrivilegeCardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPrivilegeCard
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		card, err := models.CreatePrivilegeCard(c.Request.Context(), input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, card)
	}
}

func updatePrivilegeCardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdatePrivilegeCardInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		card, err := models.UpdatePrivilegeCard(c.Request.Context(), id, input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func deletePrivilegeCardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		card, err := models.DeletePrivilegeCard(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func getPrivilegeCardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		card, err := models.GetPrivilegeCard(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func listPrivilegeCardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cards, err := models.ListPrivilegeCards(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cards)
	}
}

/* login settings */

func getLoginSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetLoginSettings(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateLoginSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.UpdateLoginSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		settings, err := models.UpdateLoginSettings(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
