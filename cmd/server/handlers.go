package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yourorg/paymentcore/internal/composer"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/orchestrator"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/reporting"
)

// paymentBody is the union of every purchase style request.
type paymentBody struct {
	GenerateToken      bool   `json:"generate_token"`
	PaymentToken       string `json:"payment_token"`
	RecurrenceToken    string `json:"recurrence_token"`
	Phone              string `json:"phone"`
	ConsumerProfileRef string `json:"consumer_profile_ref"`
}

type sessionBody struct {
	Msisdn            string   `json:"msisdn"`
	Email             string   `json:"email"`
	CountryCode       string   `json:"country_code"`
	ShippingCountries []string `json:"shipping_countries"`
}

type actionBody struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	VatAmount int64  `json:"vat_amount"`
}

type server struct {
	core     *orchestrator.Core
	journal  *reporting.Journal
	reporter *reporting.RetrospectiveReporter
}

func setupRouter(core *orchestrator.Core, journal *reporting.Journal) *gin.Engine {
	s := &server{core: core, journal: journal, reporter: reporting.NewRetrospectiveReporter()}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware("paymentcore"))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/report", s.report)

	router.POST("/orders/:id/:instrument/:operation", s.orderOperation)
	router.GET("/orders/:id/can-update/:status", s.canUpdate)
	router.POST("/credentials/:instrument", s.checkCredentials)
	router.POST("/payments/:action", s.paymentAction)
	router.GET("/payments/*id", s.paymentInfo)
	return router
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error(), "status_code": http.StatusBadRequest})
		return false
	}
	return true
}

func (s *server) orderOperation(c *gin.Context) {
	orderID := c.Param("id")
	instrument := model.Instrument(c.Param("instrument"))
	operation := c.Param("operation")
	ctx := c.Request.Context()

	if instrument == model.InstrumentConsumer && operation == "session" {
		var body sessionBody
		if !bindOptional(c, &body) {
			return
		}
		resp, err := s.core.Consumer().InitiateSession(ctx, composer.SessionParams{
			Msisdn:            body.Msisdn,
			Email:             body.Email,
			CountryCode:       body.CountryCode,
			ShippingCountries: body.ShippingCountries,
		})
		s.respond(c, resp, err)
		return
	}

	var body paymentBody
	if !bindOptional(c, &body) {
		return
	}
	purchase := composer.PurchaseParams{GenerateToken: body.GenerateToken, PaymentToken: body.PaymentToken}
	recur := composer.RecurParams{RecurrenceToken: body.RecurrenceToken, PaymentToken: body.PaymentToken}
	checkout := composer.CheckoutParams{PurchaseParams: purchase, ConsumerProfileRef: body.ConsumerProfileRef}

	var (
		resp *model.Response
		err  error
	)
	switch instrument + "/" + model.Instrument(operation) {
	case "creditcard/purchase":
		resp, err = s.core.Card().Purchase(ctx, orderID, purchase)
	case "creditcard/verify":
		resp, err = s.core.Card().Verify(ctx, orderID, purchase)
	case "creditcard/recur":
		resp, err = s.core.Card().Recur(ctx, orderID, recur)
	case "creditcard/unscheduled":
		resp, err = s.core.Card().UnscheduledPurchase(ctx, orderID, recur)
	case "mobilepay/purchase":
		resp, err = s.core.Mobilepay().Purchase(ctx, orderID, body.Phone)
	case "swish/purchase":
		resp, err = s.core.Swish().Purchase(ctx, orderID, body.Phone)
	case "vipps/purchase":
		resp, err = s.core.Vipps().Purchase(ctx, orderID, body.Phone)
	case "trustly/purchase":
		resp, err = s.core.Trustly().Purchase(ctx, orderID)
	case "invoice/purchase":
		resp, err = s.core.Invoice().Purchase(ctx, orderID)
	case "checkout/purchase":
		resp, err = s.core.Checkout().Purchase(ctx, orderID, checkout)
	case "checkout/verify":
		resp, err = s.core.Checkout().Verify(ctx, orderID, checkout)
	case "checkout/recur":
		resp, err = s.core.Checkout().Recur(ctx, orderID, recur)
	case "checkout/unscheduled":
		resp, err = s.core.Checkout().UnscheduledPurchase(ctx, orderID, recur)
	default:
		err = model.NewValidationError("operation", string(instrument)+" does not support "+operation)
	}
	s.respond(c, resp, err)
}

func (s *server) checkCredentials(c *gin.Context) {
	if err := s.core.CheckCredentials(c.Request.Context(), model.Instrument(c.Param("instrument"))); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) paymentAction(c *gin.Context) {
	action, ok := model.ParseAction(c.Param("action"))
	if !ok {
		s.fail(c, model.NewValidationError("action", "unknown action "+c.Param("action")))
		return
	}
	var body actionBody
	if !bindOptional(c, &body) {
		return
	}
	resp, err := s.core.Do(c.Request.Context(), action, body.ID, body.Amount, body.VatAmount)
	s.respond(c, resp, err)
}

// paymentInfo accepts a payment href (/payments/psp/creditcard/payments/<id>)
// or an order id (/payments/<order id>).
func (s *server) paymentInfo(c *gin.Context) {
	id := c.Param("id")
	if strings.Count(id, "/") == 1 {
		id = strings.TrimPrefix(id, "/")
	}
	var expand []string
	if raw := c.Query("expand"); raw != "" {
		expand = strings.Split(raw, ",")
	}
	resp, err := s.core.FetchPaymentInfo(c.Request.Context(), id, expand...)
	s.respond(c, resp, err)
}

func (s *server) canUpdate(c *gin.Context) {
	allowed, err := s.core.CanUpdateOrderStatus(c.Request.Context(), c.Param("id"), order.Status(c.Param("status")), c.Query("transaction_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

func (s *server) report(c *gin.Context) {
	report, err := s.reporter.GenerateRetrospective(s.journal.Entries())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *server) respond(c *gin.Context, resp *model.Response, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	out := gin.H{"id": resp.ID(), "state": resp.State(), "data": resp.Data}
	if url, ok := s.core.Checkout().ContinueURL(resp); ok {
		out["continue_url"] = url
	}
	c.JSON(resp.StatusCode, out)
}

func (s *server) fail(c *gin.Context, err error) {
	status := httpStatus(err)
	c.JSON(status, gin.H{"error": err.Error(), "status_code": status})
}

// httpStatus maps engine errors onto the status the host answers with.
func httpStatus(err error) int {
	var exc *model.Exception
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoEndpoint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrContract):
		return http.StatusForbidden
	case errors.Is(err, model.ErrGateway) && errors.As(err, &exc) && exc.StatusCode >= 400 && exc.StatusCode < 500:
		return exc.StatusCode
	case errors.Is(err, model.ErrGateway), errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrProbeFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
