package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"MarketMovers/internal/calculator"
	"MarketMovers/internal/catalog"
	"MarketMovers/internal/indicator"
	"MarketMovers/internal/model"
	"MarketMovers/internal/movers"
)

// Defaults fill in query parameters that are missing or unusable.
type Defaults struct {
	Limit       int
	MaxProducts int
	Period      int
	// RSIFrequency is used when an indicator request names no frequency.
	RSIFrequency model.Frequency
}

// Handler exposes the catalog, mover ranking and indicator service over HTTP.
type Handler struct {
	Catalog    catalog.Catalog
	Movers     *movers.Aggregator
	Indicators *indicator.Service
	Defaults   Defaults
}

func NewHandler(cat catalog.Catalog, agg *movers.Aggregator, ind *indicator.Service, d Defaults) *Handler {
	if d.Limit < 1 {
		d.Limit = movers.DefaultLimit
	}
	if d.MaxProducts < 1 {
		d.MaxProducts = movers.DefaultMaxProducts
	}
	if d.Period <= 1 {
		d.Period = indicator.DefaultPeriod
	}
	if !d.RSIFrequency.Valid() {
		d.RSIFrequency = model.Freq1h
	}
	return &Handler{Catalog: cat, Movers: agg, Indicators: ind, Defaults: d}
}

// RegisterRoutes binds the handler to /api/v1.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/quotes", h.ListQuotes)
		v1.GET("/products", h.ListProducts)
		v1.GET("/movers", h.RankMovers)
		v1.GET("/indicators/rsi", h.GetRSI)
		v1.GET("/price", h.GetPrice)
	}
}

// ListQuotes returns the distinct quote currencies in the catalog.
func (h *Handler) ListQuotes(c *gin.Context) {
	quotes, err := h.Catalog.QuoteCurrencies(c.Request.Context())
	if err != nil {
		h.internalError(c, "list quotes", err)
		return
	}
	if quotes == nil {
		quotes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// ListProducts returns the catalog slice for one quote currency.
func (h *Handler) ListProducts(c *gin.Context) {
	quote := c.Query("quote")
	if quote == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote is required"})
		return
	}
	opts := catalog.ListOptions{
		Status: c.Query("status"),
		Limit:  positiveInt(c.Query("limit"), 0),
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), quote, opts)
	if err != nil {
		h.internalError(c, "list products", err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// RankMovers returns the top movers for a quote currency.
func (h *Handler) RankMovers(c *gin.Context) {
	quote := c.Query("quote")
	if quote == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote is required"})
		return
	}
	req := movers.Request{
		QuoteCurrency: quote,
		Limit:         positiveInt(c.Query("limit"), h.Defaults.Limit),
		MaxProducts:   positiveInt(c.Query("max_products"), h.Defaults.MaxProducts),
		Filter:        model.MovementFilter(c.Query("filter")),
		Frequency:     model.Frequency(c.DefaultQuery("frequency", string(model.Freq1d))),
		Status:        c.Query("status"),
	}

	ranked, err := h.Movers.Rank(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrUnknownFrequency) || errors.Is(err, model.ErrUnknownFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, "rank movers", err)
		return
	}

	for i := range ranked {
		ranked[i].ChangePct = calculator.Round(ranked[i].ChangePct, 2)
	}
	if ranked == nil {
		ranked = []model.Mover{}
	}
	c.JSON(http.StatusOK, gin.H{"movers": ranked})
}

// GetRSI returns the cached or freshly computed RSI for one product.
func (h *Handler) GetRSI(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	freq := h.Defaults.RSIFrequency
	if v := c.Query("frequency"); v != "" {
		f, err := model.ParseFrequency(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		freq = f
	}
	period := positiveInt(c.Query("period"), h.Defaults.Period)

	res, err := h.Indicators.GetRSI(c.Request.Context(), productID, freq, period)
	if err != nil {
		if errors.Is(err, indicator.ErrNoCandles) || errors.Is(err, indicator.ErrNotEnoughData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, "get rsi", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetPrice returns the latest traded price for one product.
func (h *Handler) GetPrice(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	quote, err := h.Indicators.CurrentPrice(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, indicator.ErrNoPrice) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, "get price", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	log.Printf("[ERROR] %s (request %s): %v", op, RequestID(c), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// positiveInt parses s, falling back to def when s is missing, unparsable or not positive.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
