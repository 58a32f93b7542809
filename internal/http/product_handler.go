package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type productHandler struct {
	productSvc service.ProductService
	validator  validator.Validator
}

func newProductHandler(productSvc service.ProductService, v validator.Validator) *productHandler {
	return &productHandler{
		productSvc: productSvc,
		validator:  v,
	}
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var req CreateProductRequest
	if err := h.decodeBody(r, &req); err != nil {
		return err
	}

	product, err := h.productSvc.CreateProduct(r.Context(), req.toParams())
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	res := newProductResponse(product)
	res.ID = nil

	return writeJSON(w, http.StatusCreated, res)
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	var params service.ListProductsParams

	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		return invalidParamErr("limit", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &params.Offset); err != nil {
		return invalidParamErr("offset", err)
	}

	products, err := h.productSvc.ListProducts(r.Context(), params)
	if err != nil {
		return fmt.Errorf("product service list products: %w", err)
	}

	items := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, newProductResponse(product))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) FindProduct(w http.ResponseWriter, r *http.Request) error {
	var term string
	if err := bindPathParam(r, "id", &term); err != nil {
		return err
	}

	product, err := h.productSvc.FindProduct(r.Context(), term)
	if err != nil {
		return fmt.Errorf("product service find product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	var id uuid.UUID
	if err := bindPathParam(r, "id", &id); err != nil {
		return err
	}

	var req UpdateProductRequest
	if err := h.decodeBody(r, &req); err != nil {
		return err
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), id, req.toParams())
	if err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	var id uuid.UUID
	if err := bindPathParam(r, "id", &id); err != nil {
		return err
	}

	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *productHandler) DeleteAllProducts(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.productSvc.DeleteAllProducts(r.Context())
	if err != nil {
		return fmt.Errorf("product service delete all products: %w", err)
	}

	return writeJSON(w, http.StatusOK, DeleteAllProductsResponse{Deleted: deleted})
}

func (h *productHandler) decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperr.ValidationErr.WithMsg("invalid request body").WrapParent(err)
	}

	if err := h.validator.Validate(dst); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}

	return nil
}

func bindPathParam(r *http.Request, name string, dst any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dst,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return invalidParamErr(name, err)
	}
	return nil
}

func invalidParamErr(name string, err error) error {
	return apperr.ValidationErr.
		WithMsg(fmt.Sprintf("invalid format for parameter %s", name)).
		WrapParent(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
