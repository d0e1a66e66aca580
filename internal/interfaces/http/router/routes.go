package router

import (
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the API handlers mounted under APIPrefix
type Handlers struct {
	Invoices  *handler.InvoiceHandler
	Stock     *handler.StockHandler
	VATRates  *handler.VATRateHandler
	Taxpayers *handler.TaxpayerHandler

	// LookupLimit guards the registry lookup, which calls a rate-limited
	// public service. Optional.
	LookupLimit gin.HandlerFunc
}

// Groups returns one route group per domain
func (h Handlers) Groups() []RouteRegistrar {
	invoices := NewDomainGroup("/invoices").
		POST("", h.Invoices.Create).
		GET("", h.Invoices.List).
		GET("/:id", h.Invoices.Get).
		PUT("/:id", h.Invoices.Update).
		PUT("/:id/lines", h.Invoices.UpdateLines).
		DELETE("/:id", h.Invoices.Delete).
		POST("/:id/number", h.Invoices.AssignNumber).
		POST("/:id/send", h.Invoices.Send).
		POST("/:id/pay", h.Invoices.MarkPaid).
		POST("/:id/cancel", h.Invoices.Cancel).
		POST("/:id/efactura", h.Invoices.SubmitEInvoice).
		POST("/:id/document", h.Invoices.RegenerateDocument)

	contracts := NewDomainGroup("/contracts").
		POST("/:id/invoice", h.Invoices.CreateFromContract)

	products := NewDomainGroup("/products").
		GET("/low-stock", h.Stock.ListLowStock).
		GET("/:id/stock", h.Stock.GetStock).
		POST("/:id/stock/entries", h.Stock.RecordEntry).
		POST("/:id/stock/adjustments", h.Stock.RecordAdjustment).
		GET("/:id/stock/movements", h.Stock.ListMovements)

	vatRates := NewDomainGroup("/vat-rates").
		GET("", h.VATRates.List).
		POST("/seed", h.VATRates.Seed).
		PUT("/:id/default", h.VATRates.SetDefault)

	cif := NewDomainGroup("/cif")
	if h.LookupLimit != nil {
		cif.Use(h.LookupLimit)
	}
	cif.GET("/:cif", h.Taxpayers.Lookup)

	return []RouteRegistrar{invoices, contracts, products, vatRates, cif}
}
