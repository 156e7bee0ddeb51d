package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/form"
	"github.com/utafrali/catalog-admin/internal/service"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/logger"
)

// maxFormBody bounds console form posts: one uploaded file plus an image
// carried over from an earlier attempt as a data URL.
const maxFormBody = 3 * form.MaxImageSize

// Form field names.
const (
	fieldName       = "name"
	fieldPrice      = "price"
	fieldImageFile  = "imageFile"
	fieldImage      = "image"
	fieldImageState  = "imageState"
	fieldImageSource = "imageSource"
	fieldAction      = "action"

	actionRemoveImage = "remove-image"

	// sourceDrop marks a file that was dropped on the drop zone rather than
	// picked with the file dialog.
	sourceDrop = "drop"
)

// PageHandler serves the HTML console.
type PageHandler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewPageHandler creates a new console page handler.
func NewPageHandler(svc service.ProductService, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		service: svc,
		logger:  logger,
	}
}

// ListPage handles GET /
func (h *PageHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := domain.ParseListOptions(q.Get("search"), q.Get("sortBy"), q.Get("order"))

	products, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.renderFailure(w, r, "Products", err)
		return
	}

	h.render(w, r, http.StatusOK, "list", newListView(products, opts, q.Get("view")))
}

// NewPage handles GET /new
func (h *PageHandler) NewPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "form", newFormView(form.NewCreateSession(), form.Values{}))
}

// CreateSubmit handles POST /new
func (h *PageHandler) CreateSubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, form.NewCreateSession())
}

// EditPage handles GET /update/{id}
func (h *PageHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	values := form.Values{
		Name:  product.Name,
		Price: strconv.FormatFloat(product.Price, 'f', -1, 64),
	}
	h.render(w, r, http.StatusOK, "form", newFormView(form.NewEditSession(*product), values))
}

// UpdateSubmit handles POST /update/{id}
func (h *PageHandler) UpdateSubmit(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	h.submit(w, r, form.NewEditSession(*product))
}

// DeleteSubmit handles POST /update/{id}/delete
func (h *PageHandler) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, "Edit Product", err)
		return
	}
	if !deleted {
		h.render(w, r, http.StatusNotFound, "message", productNotFound)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadProduct fetches the product named by the path, rendering the not-found
// or failure page itself when there is nothing to edit.
func (h *PageHandler) loadProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, "Edit Product", err)
		return nil, false
	}
	if product == nil {
		h.render(w, r, http.StatusNotFound, "message", productNotFound)
		return nil, false
	}
	return product, true
}

func (h *PageHandler) submit(w http.ResponseWriter, r *http.Request, s *form.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseMultipartForm(form.MaxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		view := newFormView(s, form.Values{})
		view.Error = "The form could not be read. Images must be 10 MB or smaller."
		h.render(w, r, http.StatusBadRequest, "form", view)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	values := form.Values{
		Name:  r.PostFormValue(fieldName),
		Price: r.PostFormValue(fieldPrice),
	}

	fileErr := h.applyImage(r, s)
	if fileErr != nil {
		view := newFormView(s, values)
		view.Error = fileErr.Error()
		h.render(w, r, http.StatusBadRequest, "form", view)
		return
	}

	if r.PostFormValue(fieldAction) == actionRemoveImage {
		s.Remove()
		h.render(w, r, http.StatusOK, "form", newFormView(s, values))
		return
	}

	_, err := s.Submit(r.Context(), h.service, values)
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var incomplete *form.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		view := newFormView(s, values)
		view.Error = "Please provide " + strings.Join(incomplete.Fields, ", ") + "."
		view.Missing = make(map[string]bool, len(incomplete.Fields))
		for _, f := range incomplete.Fields {
			view.Missing[f] = true
		}
		h.render(w, r, http.StatusBadRequest, "form", view)
	case errors.Is(err, form.ErrProductGone):
		h.render(w, r, http.StatusNotFound, "message", productNotFound)
	default:
		view := newFormView(s, values)
		view.Error = failureMessage(err)
		h.render(w, r, apperrors.HTTPStatus(err), "form", view)
	}
}

// applyImage restores the session's image from the posted fields. A carried
// over data URL is applied first so that a newly chosen file replaces it.
func (h *PageHandler) applyImage(r *http.Request, s *form.Session) error {
	if r.PostFormValue(fieldImageState) == form.NoImage.String() {
		s.Remove()
	}

	if carried := r.PostFormValue(fieldImage); carried != "" {
		if err := s.Restore(carried); err != nil {
			logger.WithContext(r.Context(), h.logger).DebugContext(r.Context(), "discarding carried image",
				slog.String("error", err.Error()),
			)
		}
	}

	if r.MultipartForm == nil {
		return nil
	}
	file, header, err := r.FormFile(fieldImageFile)
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	if header.Size == 0 && header.Filename == "" {
		return nil
	}

	f := form.File{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Data: file,
	}
	if r.PostFormValue(fieldImageSource) == sourceDrop {
		return s.HandleDrag(r.Context(), &form.DragEvent{Type: form.Drop, Files: []form.File{f}})
	}
	return s.SelectFile(r.Context(), f)
}

func (h *PageHandler) renderFailure(w http.ResponseWriter, r *http.Request, title string, err error) {
	h.render(w, r, apperrors.HTTPStatus(err), "message", messageView{
		Title:   title,
		Message: failureMessage(err),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.WithContext(r.Context(), h.logger).ErrorContext(r.Context(), "failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// failureMessage returns the user-facing text of a service failure. Only
// application errors carry a message safe to show.
func failureMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
