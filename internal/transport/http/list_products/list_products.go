package listproducts

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/corray333/storefront/internal/transport/http/converters"
	"github.com/corray333/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	List(ctx context.Context, limit, offset int) ([]product.Product, error)
}

// listProductsResponse represents the public product listing.
type listProductsResponse struct {
	Products []converters.ProductResponse `json:"products"`
}

// ListProducts handles the public product listing request.
func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	products, err := service.List(r.Context(), limit, offset)
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	respond.WriteJSON(w, http.StatusOK, listProductsResponse{
		Products: converters.ToProductResponses(products),
	})
}
