package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/en16931"
	"github.com/WeblateOrg/website-sub000/models"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/WeblateOrg/website-sub000/workflow"
)

func registerRoutes(r *gin.Engine, logger *logrus.Logger, rp models.RateProvider) {
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("/api", requireDatabase())
	api.POST("/invoices", createInvoiceHandler(logger, rp))
	api.GET("/invoices", listInvoicesHandler(logger))
	api.GET("/invoices/:id", getInvoiceHandler())
	api.POST("/invoices/:id/duplicate", duplicateInvoiceHandler(logger, rp))
	api.POST("/invoices/:id/payment", createPaymentHandler(logger))
	api.GET("/invoices/:id/qrcode", invoiceQRCodeHandler(logger))
	api.GET("/exports/bookkeeping", bookkeepingExportHandler(logger, rp))
	api.POST("/customers", createCustomerHandler(logger))
	api.GET("/customers/:id", getCustomerHandler())
	api.POST("/discounts", createDiscountHandler(logger))
	api.DELETE("/discounts/:id", deleteDiscountHandler(logger))
	api.POST("/packages", createPackageHandler(logger))
	api.GET("/packages/:id", getPackageHandler())
	r.POST("/api/einvoice/validate", validateEInvoiceHandler())
}

// requireDatabase answers 503 while the startup database connection is still
// in flight.
func requireDatabase() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.GetDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}
		c.Next()
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidOperation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func createInvoiceHandler(logger *logrus.Logger, rp models.RateProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := models.CreateInvoice(c.Request.Context(), &input, rp)
		if err != nil {
			config.LogError(logger, "handlers.go", "createInvoiceHandler", "models.CreateInvoice", input, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func listInvoicesHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var kind *models.InvoiceKind
		if raw := c.Query("kind"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || !models.InvoiceKind(parsed).Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
				return
			}
			k := models.InvoiceKind(parsed)
			kind = &k
		}
		var fiscalYear *int
		if raw := c.Query("year"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
				return
			}
			fiscalYear = &parsed
		}
		invoices, err := models.GetInvoices(c.Request.Context(), kind, fiscalYear)
		if err != nil {
			config.LogError(logger, "handlers.go", "listInvoicesHandler", "models.GetInvoices", nil, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoice, err := models.GetInvoice(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

type duplicateInvoiceRequest struct {
	Kind      models.InvoiceKind `json:"kind"`
	IssueDate *time.Time         `json:"issue_date"`
	DueDate   *time.Time         `json:"due_date"`
	TaxDate   *time.Time         `json:"tax_date"`
}

func duplicateInvoiceHandler(logger *logrus.Logger, rp models.RateProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req duplicateInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts := models.DuplicateOptions{
			IssueDate: req.IssueDate,
			DueDate:   req.DueDate,
			TaxDate:   req.TaxDate,
		}
		invoice, err := workflow.DuplicateInvoice(c.Request.Context(), logger, c.Param("id"), req.Kind, opts, rp)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func createPaymentHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payment, err := workflow.CreatePaymentForInvoice(c.Request.Context(), logger, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func invoiceQRCodeHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		qrcode, err := workflow.InvoiceQRCode(c.Request.Context(), logger, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"qrcode": qrcode})
	}
}

func bookkeepingExportHandler(logger *logrus.Logger, rp models.RateProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := strconv.Atoi(c.Query("year"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=bookkeeping-"+strconv.Itoa(year)+".xlsx")
		if err := workflow.ExportBookkeeping(c.Request.Context(), logger, year, rp, c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func validateEInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		valid, validationErrors, warnings, err := en16931.ValidateBytes(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if validationErrors == nil {
			validationErrors = []en16931.Issue{}
		}
		if warnings == nil {
			warnings = []en16931.Issue{}
		}
		c.JSON(http.StatusOK, gin.H{
			"is_valid": valid,
			"errors":   validationErrors,
			"warnings": warnings,
		})
	}
}

func createCustomerHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			config.LogError(logger, "handlers.go", "createCustomerHandler", "models.CreateCustomer", input, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createDiscountHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDiscount
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		discount, err := models.CreateDiscount(c.Request.Context(), &input)
		if err != nil {
			config.LogError(logger, "handlers.go", "createDiscountHandler", "models.CreateDiscount", input, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, discount)
	}
}

func deleteDiscountHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		discount, err := models.DeleteDiscount(c.Request.Context(), id)
		if err != nil {
			config.LogError(logger, "handlers.go", "deleteDiscountHandler", "models.DeleteDiscount", id, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, discount)
	}
}

func createPackageHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPackage
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pkg, err := models.CreatePackage(c.Request.Context(), &input)
		if err != nil {
			config.LogError(logger, "handlers.go", "createPackageHandler", "models.CreatePackage", input, err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, pkg)
	}
}

func getPackageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		pkg, err := models.GetPackage(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pkg)
	}
}
