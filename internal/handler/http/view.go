package http

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/utafrali/catalog-admin/internal/dataurl"
	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/form"
)

//go:embed templates/*.html templates/placeholder.svg
var templateFS embed.FS

const (
	viewList = "list"
	viewGrid = "grid"

	placeholderPath = "/placeholder.svg"
	dateLayout      = "Jan 2, 2006 15:04"
)

var templateFuncs = template.FuncMap{
	"imageSrc":   imageSrc,
	"formatDate": formatDate,
	"price":      formatPrice,
}

// pages holds one parsed template set per page, each sharing the layout.
var pages = map[string]*template.Template{
	"list":    parsePage("list.html"),
	"form":    parsePage("form.html"),
	"message": parsePage("message.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func servePlaceholder(w http.ResponseWriter, r *http.Request) {
	data, err := templateFS.ReadFile("templates/placeholder.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

// imageSrc returns a URL safe for an img src attribute. Inline images are
// passed through only when they decode as image data URLs.
func imageSrc(image string, size int) template.URL {
	if image != "" {
		if !dataurl.IsDataURL(image) {
			if domain.IsImageRef(image) {
				return template.URL(image)
			}
		} else if du, err := dataurl.Decode(image); err == nil && form.IsImageType(du.MIME) {
			return template.URL(image)
		}
	}
	if size <= 0 {
		return placeholderPath
	}
	s := strconv.Itoa(size)
	return template.URL(placeholderPath + "?height=" + s + "&width=" + s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func formatPrice(p float64) string {
	return "Rp" + strconv.FormatFloat(p, 'f', -1, 64)
}

type sortChoice struct {
	Label  string
	URL    string
	Active bool
}

var sortChoices = []struct {
	label string
	by    domain.SortKey
	order domain.SortOrder
}{
	{"Name (A-Z)", domain.SortByName, domain.OrderAsc},
	{"Name (Z-A)", domain.SortByName, domain.OrderDesc},
	{"Price (Low to High)", domain.SortByPrice, domain.OrderAsc},
	{"Price (High to Low)", domain.SortByPrice, domain.OrderDesc},
	{"Date Added (Newest)", domain.SortByDateAdded, domain.OrderDesc},
	{"Date Updated (Newest)", domain.SortByDateUpdated, domain.OrderDesc},
}

func sortLabel(by domain.SortKey) string {
	switch by {
	case domain.SortByName:
		return "Name"
	case domain.SortByPrice:
		return "Price"
	case domain.SortByDateUpdated:
		return "Date Updated"
	default:
		return "Date Added"
	}
}

type listView struct {
	Title       string
	Products    []domain.Product
	Empty       bool
	NoMatches   bool
	Search      string
	SortBy      string
	Order       string
	View        string
	Grid        bool
	SortLabel   string
	SortChoices []sortChoice
	ToggleURL   string
	ToggleLabel string
	ImageSize   int
}

func newListView(all []domain.Product, opts domain.ListOptions, mode string) listView {
	if mode != viewGrid {
		mode = viewList
	}
	shown := domain.ApplyListOptions(all, opts)

	v := listView{
		Title:     "Products",
		Products:  shown,
		Empty:     len(all) == 0,
		NoMatches: len(all) > 0 && len(shown) == 0,
		Search:    opts.Search,
		SortBy:    string(opts.SortBy),
		Order:     string(opts.Order),
		View:      mode,
		Grid:      mode == viewGrid,
		SortLabel: sortLabel(opts.SortBy),
		ImageSize: 100,
	}
	if v.Grid {
		v.ImageSize = 200
	}

	toggle := viewGrid
	v.ToggleLabel = "Grid view"
	if v.Grid {
		toggle = viewList
		v.ToggleLabel = "List view"
	}
	v.ToggleURL = listURL(opts, toggle)

	for _, c := range sortChoices {
		o := domain.ListOptions{Search: opts.Search, SortBy: c.by, Order: c.order}
		v.SortChoices = append(v.SortChoices, sortChoice{
			Label:  c.label,
			URL:    listURL(o, mode),
			Active: c.by == opts.SortBy && c.order == opts.Order,
		})
	}
	return v
}

func listURL(opts domain.ListOptions, mode string) string {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	q.Set("sortBy", string(opts.SortBy))
	q.Set("order", string(opts.Order))
	if mode == viewGrid {
		q.Set("view", viewGrid)
	}
	return "/?" + q.Encode()
}

type formView struct {
	Title        string
	Edit         bool
	Action       string
	DeleteAction string
	Name         string
	Price        string
	Image        string
	ImageState   string
	CarryImage   bool
	Error        string
	Missing      map[string]bool
}

func newFormView(s *form.Session, values form.Values) formView {
	v := formView{
		Title:      "Add New Product",
		Action:     "/new",
		Name:       values.Name,
		Price:      values.Price,
		Image:      s.Image(),
		ImageState: s.State().String(),
		CarryImage: s.State() == form.ImageNew,
	}
	if s.Mode() == form.ModeEdit {
		v.Title = "Edit Product"
		v.Edit = true
		v.Action = "/update/" + url.PathEscape(s.ProductID())
		v.DeleteAction = v.Action + "/delete"
	}
	return v
}

type messageView struct {
	Title   string
	Message string
}

var productNotFound = messageView{
	Title:   "Product Not Found",
	Message: "The product you're looking for doesn't exist or has been removed.",
}
