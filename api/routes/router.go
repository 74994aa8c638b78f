package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnghuy/vietcart-backend/api/controllers"
	"github.com/dnghuy/vietcart-backend/api/middleware"
	cartsvc "github.com/dnghuy/vietcart-backend/internal/cart"
	checkoutsvc "github.com/dnghuy/vietcart-backend/internal/checkout"
	"github.com/dnghuy/vietcart-backend/internal/inventory"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	"github.com/dnghuy/vietcart-backend/internal/orders"
	"github.com/dnghuy/vietcart-backend/internal/paymentmethods"
	"github.com/dnghuy/vietcart-backend/internal/shipping"
	"github.com/dnghuy/vietcart-backend/pkg/config"
	"github.com/dnghuy/vietcart-backend/pkg/db"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	pkgredis "github.com/dnghuy/vietcart-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Cfg   *config.Config
	Logg  *logger.Logger
	DB    db.Pinger
	Redis *pkgredis.Client

	CartService     cartsvc.Service
	CartReconciler  *cartsvc.Reconciler
	LocalCart       *localcart.Store
	CheckoutManager *checkoutsvc.Manager
	Placer          orders.Placer
	Lookup          *orders.Lookup
	Lifecycle       orders.Lifecycle
	Ledger          ledger.Service
	Adjuster        *inventory.Adjuster
	PaymentMethods  paymentmethods.Repository
	Shipping        shipping.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.DeviceID(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/order-statuses", controllers.OrderStatuses())
		r.Get("/payment-methods", controllers.PaymentMethods(deps.PaymentMethods, logg))
		r.Get("/shipping-methods", controllers.ShippingMethods(deps.Shipping, logg))

		// Guest device cart, keyed by the X-Device-Id header.
		r.Route("/local-cart", func(r chi.Router) {
			r.Get("/", controllers.LocalCartGet(deps.LocalCart, logg))
			r.Post("/items", controllers.LocalCartAdd(deps.LocalCart, logg))
			r.Put("/items/{variantID}", controllers.LocalCartUpdate(deps.LocalCart, logg))
			r.Delete("/items/{variantID}", controllers.LocalCartRemove(deps.LocalCart, logg))
		})

		// Authenticated cart.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.CartGet(deps.CartService, logg))
			r.Post("/items", controllers.CartAdd(deps.CartService, logg))
			r.Put("/items/{variantID}", controllers.CartUpdate(deps.CartService, logg))
			r.Delete("/items/{variantID}", controllers.CartRemove(deps.CartService, logg))
			r.Post("/merge", controllers.CartMerge(deps.CartReconciler, logg))
		})

		// Checkout works for both guests and authenticated shoppers.
		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Post("/begin", controllers.CheckoutBegin(deps.CheckoutManager, logg))
			r.Put("/guest-info", controllers.CheckoutSetGuestInfo(deps.CheckoutManager, logg))
			r.Put("/address", controllers.CheckoutSetAddress(deps.CheckoutManager, logg))
			r.Put("/payment", controllers.CheckoutSetPayment(deps.CheckoutManager, logg))
			r.Post("/next", controllers.CheckoutNext(deps.CheckoutManager, logg))
			r.Post("/back", controllers.CheckoutBack(deps.CheckoutManager, logg))
			r.Post("/goto", controllers.CheckoutGoTo(deps.CheckoutManager, logg))
			r.With(middleware.Idempotency(deps.Redis, logg)).
				Post("/place", controllers.CheckoutPlace(deps.CheckoutManager, deps.Placer, deps.LocalCart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.OptionalAuth(cfg.JWT, logg)).
				Get("/{orderID}", controllers.OrderGet(deps.Lookup, logg))
			r.With(middleware.Auth(cfg.JWT, logg), middleware.Idempotency(deps.Redis, logg)).
				Post("/{orderID}/cancel", controllers.OrderCancel(deps.Lifecycle, deps.Lookup, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Put("/orders/{orderID}/status", controllers.AdminOrderStatusUpdate(deps.Lifecycle, logg))
			r.Put("/orders/{orderID}/payment-status", controllers.AdminPaymentStatusUpdate(deps.Lifecycle, logg))
			r.With(middleware.Idempotency(deps.Redis, logg)).
				Post("/orders/batch-status", controllers.AdminBatchStatusUpdate(deps.Lifecycle, logg))
			r.Get("/inventory/{variantID}/ledger", controllers.LedgerHistory(deps.Ledger, logg))
			r.Post("/inventory/{variantID}/initial-stock", controllers.StockInitial(deps.Adjuster, logg))
			r.Post("/inventory/{variantID}/adjust", controllers.StockAdjust(deps.Adjuster, logg))
		})
	})

	return r
}
