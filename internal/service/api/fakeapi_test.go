package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/pkg/clock"
	"github.com/utafrali/catalog-admin/pkg/httputil"
)

// fakeAPI is an in-process stand-in for the remote catalog REST API.
type fakeAPI struct {
	mu       sync.Mutex
	clock    clock.Clock
	products []domain.Product
	nextID   int
	uploads  map[string]upload
	requests []recorded

	// failures is the number of upcoming requests answered with 503.
	failures int
}

type upload struct {
	filename    string
	contentType string
	data        []byte
}

type recorded struct {
	method string
	path   string
	header http.Header
	fields map[string][]string
	files  []string
}

func newFakeAPI(clk clock.Clock) *fakeAPI {
	return &fakeAPI{clock: clk, uploads: make(map[string]upload)}
}

func (f *fakeAPI) start(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/products", f.list)
	r.Post("/products", f.create)
	r.Get("/products/{id}", f.get)
	r.Put("/products/{id}", f.update)
	r.Delete("/products/{id}", f.delete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, header: r.Header.Clone()}
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			rec.fields = r.MultipartForm.Value
			for name := range r.MultipartForm.File {
				rec.files = append(rec.files, name)
			}
		} else {
			_, _ = io.Copy(io.Discard, r.Body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		fail := f.failures > 0
		if fail {
			f.failures--
		}
		f.mu.Unlock()

		if fail {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "warming up"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func notFound(w http.ResponseWriter, id string) {
	httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "product " + id + " not found"},
	})
}

func (f *fakeAPI) indexOf(id string) int {
	return slices.IndexFunc(f.products, func(p domain.Product) bool { return p.ID == id })
}

func (f *fakeAPI) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, f.products)
}

func (f *fakeAPI) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	i := f.indexOf(id)
	if i < 0 {
		notFound(w, id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, f.products[i])
}

// imageFrom stores an uploaded file under id and returns its hosted URL, or
// returns the imageUrl field.
func (f *fakeAPI) imageFrom(r *http.Request, id string) string {
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, _ := io.ReadAll(file)
		f.uploads[id] = upload{
			filename:    header.Filename,
			contentType: header.Header.Get("Content-Type"),
			data:        data,
		}
		return "https://cdn.test/media/" + id + "/" + header.Filename
	}
	return r.FormValue("imageUrl")
}

func (f *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || r.FormValue("name") == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "name and price are required"})
		return
	}

	f.nextID++
	id := strconv.Itoa(f.nextID)
	p := domain.NewProduct(id, domain.ProductInput{
		Name:  r.FormValue("name"),
		Price: price,
		Image: f.imageFrom(r, id),
	}, f.clock.Now())
	f.products = append(f.products, p)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (f *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	i := f.indexOf(id)
	if i < 0 {
		notFound(w, id)
		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	in := domain.ProductUpdateInput{Name: r.FormValue("name"), Price: price}
	if img := f.imageFrom(r, id); img != "" {
		in.Image = &img
	}
	f.products[i] = in.ApplyTo(f.products[i], f.clock.Now())
	httputil.WriteJSON(w, http.StatusOK, f.products[i])
}

func (f *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	i := f.indexOf(id)
	if i < 0 {
		notFound(w, id)
		return
	}
	f.products = slices.Delete(f.products, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

// jsonHandler answers every request with status and body.
func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
