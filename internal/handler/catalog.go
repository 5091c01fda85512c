package handler

import (
	"net/http"
	"strconv"

	"github.com/naranjashop/storefront/internal/domain/catalog"
)

// ListProducts proxies the product listing. Upstream failures stay local to
// this panel: a 502 with a message, while the rest of the surface keeps
// serving from session state.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Products(r.Context(), queryFrom(r))
	if err != nil {
		logUpstreamFailure(r, "products", err)
		respondError(w, http.StatusBadGateway, "No se pudieron cargar los productos")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListCategories proxies the category list.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		logUpstreamFailure(r, "categories", err)
		respondError(w, http.StatusBadGateway, "No se pudieron cargar las categorías")
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// ListAnnouncements proxies storefront-wide notices.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	anns, err := h.catalog.Announcements(r.Context())
	if err != nil {
		logUpstreamFailure(r, "announcements", err)
		respondError(w, http.StatusBadGateway, "No se pudieron cargar los anuncios")
		return
	}
	respondJSON(w, http.StatusOK, anns)
}

func queryFrom(r *http.Request) catalog.Query {
	v := r.URL.Query()
	q := catalog.Query{
		Search:   v.Get("search"),
		Ordering: v.Get("ordering"),
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("page_size")); err == nil && n > 0 {
		q.PageSize = n
	}
	if n, err := strconv.ParseInt(v.Get("category"), 10, 64); err == nil && n > 0 {
		q.Category = n
	}
	if v.Get("promoted") == "true" || v.Get("promoted") == "1" {
		q.Promoted = true
	}
	return q
}
