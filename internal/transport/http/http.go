package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/metrics"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/corray333/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/storefront/internal/service/services/ordersvc"
	"github.com/corray333/storefront/internal/transport/http/auth"
	createcheckout "github.com/corray333/storefront/internal/transport/http/create_checkout"
	getorder "github.com/corray333/storefront/internal/transport/http/get_order"
	listorders "github.com/corray333/storefront/internal/transport/http/list_orders"
	listproducts "github.com/corray333/storefront/internal/transport/http/list_products"
	managecart "github.com/corray333/storefront/internal/transport/http/manage_cart"
	paymentwebhook "github.com/corray333/storefront/internal/transport/http/payment_webhook"
	"github.com/corray333/storefront/pkg/http/middleware/trace"
	"github.com/corray333/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type checkoutService interface {
	CreateSession(
		ctx context.Context,
		identity session.Identity,
		req checkoutsvc.CreateSessionRequest,
	) (*payment.Session, error)
}

type orderService interface {
	CreateFromPayment(ctx context.Context, conf ordersvc.PaymentConfirmation) (order.Order, bool, error)
	GetOrders(ctx context.Context, customerID int64, limit, offset int) ([]order.Order, error)
	GetOrder(ctx context.Context, customerID int64, orderID int64) (*order.Order, error)
}

type productService interface {
	List(ctx context.Context, limit, offset int) ([]product.Product, error)
}

type cartService interface {
	Get(ctx context.Context, customerID int64) ([]cart.Line, error)
	Replace(ctx context.Context, customerID int64, lines []cart.Line) error
	Clear(ctx context.Context, customerID int64) error
}

type sessionLookup interface {
	Lookup(ctx context.Context, token string) (*session.Identity, error)
}

type webhookVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

type HTTPTransport struct {
	server *http.Server
	router *chi.Mux

	checkout checkoutService
	orders   orderService
	products productService
	carts    cartService

	authMW   func(http.Handler) http.Handler
	verifier webhookVerifier
	metrics  *metrics.ServerMetrics
}

func NewHTTPTransport(
	checkout checkoutService,
	orders orderService,
	products productService,
	carts cartService,
	sessions sessionLookup,
	verifier webhookVerifier,
	serverMetrics *metrics.ServerMetrics,
) *HTTPTransport {
	router := newRouter(serverMetrics)
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		checkout: checkout,
		orders:   orders,
		products: products,
		carts:    carts,
		authMW:   auth.NewMiddleware(sessions),
		verifier: verifier,
		metrics:  serverMetrics,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Handle("/metrics", h.metrics.Handler())

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Post("/webhooks/payment", h.paymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(h.authMW)

			r.Post("/checkout/sessions", h.createCheckoutSession)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderID}", h.getOrder)
			r.Get("/cart", h.getCart)
			r.Put("/cart", h.replaceCart)
			r.Delete("/cart", h.clearCart)
		})
	})
}

func (h *HTTPTransport) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	createcheckout.CreateSession(w, r, h.checkout)
}

func (h *HTTPTransport) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	paymentwebhook.HandleWebhook(w, r, h.orders, h.verifier)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	listproducts.ListProducts(w, r, h.products)
}

func (h *HTTPTransport) getCart(w http.ResponseWriter, r *http.Request) {
	managecart.GetCart(w, r, h.carts)
}

func (h *HTTPTransport) replaceCart(w http.ResponseWriter, r *http.Request) {
	managecart.ReplaceCart(w, r, h.carts)
}

func (h *HTTPTransport) clearCart(w http.ResponseWriter, r *http.Request) {
	managecart.ClearCart(w, r, h.carts)
}

func newRouter(serverMetrics *metrics.ServerMetrics) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)
	router.Use(serverMetrics.Middleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
