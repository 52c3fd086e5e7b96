package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"orderhash/internal/eip712"
	"orderhash/internal/limitorder"
	"orderhash/internal/manager"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

type HashQueryParams struct {
	Verify bool `schema:"verify"`
}

var decoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func (s *APIServer) RegisterRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	// Register routes
	router.GET("/", s.DefaultHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.GET("/domain", s.GetDomain)
	v1.POST("/limit-order/hash", s.HashLimitOrder)
	v1.POST("/multi-limit-order/hash", s.HashMultiLimitOrder)
	v1.POST("/typed-data/hash", s.HashTypedData)
	v1.GET("/verifications/:orderHash", s.GetVerification)

	// Wrap the router with CORS middleware
	return s.corsMiddleware(router)
}

func (s *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Proceed with the next handler
		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) DefaultHandler(c *gin.Context) {
	hasher := s.manager.Hasher()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"domainSeparator": hasher.DomainSeparator(),
		"oracle":          s.manager.HasOracle(),
	})
}

func (s *APIServer) GetDomain(c *gin.Context) {
	hasher := s.manager.Hasher()
	c.JSON(http.StatusOK, gin.H{
		"domain":          hasher.Domain(),
		"domainSeparator": hasher.DomainSeparator(),
	})
}

func (s *APIServer) HashLimitOrder(c *gin.Context) {
	params, ok := s.queryParams(c)
	if !ok {
		return
	}

	var order limitorder.LimitOrder
	if !s.decodeBody(c, &order) {
		return
	}

	record, err := s.manager.HashLimitOrder(c.Request.Context(), order, params.Verify)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("Limit order hashed",
		zap.Stringer("orderHash", record.OrderHash),
		zap.Bool("verified", record.Verified))
	c.JSON(http.StatusOK, record)
}

func (s *APIServer) HashMultiLimitOrder(c *gin.Context) {
	params, ok := s.queryParams(c)
	if !ok {
		return
	}

	var order limitorder.MultiLimitOrder
	if !s.decodeBody(c, &order) {
		return
	}

	record, err := s.manager.HashMultiLimitOrder(c.Request.Context(), order, params.Verify)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("Multi limit order hashed",
		zap.Stringer("orderHash", record.OrderHash),
		zap.Bool("verified", record.Verified))
	c.JSON(http.StatusOK, record)
}

func (s *APIServer) HashTypedData(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	defer body.Close()

	td, err := eip712.DecodeTypedData(body)
	if err != nil {
		s.logger.Debug("Failed to decode typed data", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid typed data"})
		return
	}

	record, err := s.manager.HashTypedData(td)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("Typed data hashed",
		zap.String("primaryType", record.PrimaryType),
		zap.Stringer("orderHash", record.OrderHash))
	c.JSON(http.StatusOK, record)
}

func (s *APIServer) GetVerification(c *gin.Context) {
	orderHash := c.Param("orderHash")
	if _, err := limitorder.ParseOrderHash(orderHash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order hash"})
		return
	}

	record, err := s.manager.GetRecord(orderHash)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *APIServer) queryParams(c *gin.Context) (HashQueryParams, bool) {
	var params HashQueryParams
	if err := decoder.Decode(&params, c.Request.URL.Query()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return HashQueryParams{}, false
	}
	return params, true
}

func (s *APIServer) decodeBody(c *gin.Context, v any) bool {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("Failed to decode order", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order data"})
		return false
	}
	if _, err := dec.Token(); err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order data"})
		return false
	}
	return true
}

func (s *APIServer) writeError(c *gin.Context, err error) {
	var oracleErr *manager.OracleError

	switch {
	case eip712.IsSchemaError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, manager.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, manager.ErrNoOracle):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification is not available"})
	case errors.As(err, &oracleErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Router call failed"})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
