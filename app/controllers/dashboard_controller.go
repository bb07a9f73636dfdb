package controllers

import (
	"net/http"

	"socialpost/app/repositories"
	"socialpost/app/services"

	"github.com/sirupsen/logrus"
)

// ProductController serves the product catalog
type ProductController struct {
	products repositories.ProductRepository
	log      logrus.FieldLogger
}

// NewProductController creates a new ProductController
func NewProductController(products repositories.ProductRepository, log logrus.FieldLogger) *ProductController {
	return &ProductController{products: products, log: log}
}

// Index lists the catalog
func (pc *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	products, err := pc.products.List()
	if err != nil {
		sendServiceError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, products)
}

// DashboardController serves the dashboard counters
type DashboardController struct {
	posts  *services.PostService
	ledger *services.CreditLedger
	log    logrus.FieldLogger
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(posts *services.PostService, ledger *services.CreditLedger, log logrus.FieldLogger) *DashboardController {
	return &DashboardController{posts: posts, ledger: ledger, log: log}
}

// Stats returns post counts and the credit balance
func (dc *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := dc.posts.Stats(r.Context())
	if err != nil {
		sendServiceError(w, r, dc.log, err)
		return
	}
	stats.Credits = dc.ledger.Balance()
	sendJSON(w, http.StatusOK, stats)
}
