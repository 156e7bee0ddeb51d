// Package form holds the per-form state machine that captures a product image
// and submits the form through a service.ProductService.
package form

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
)

// Mode distinguishes the create and edit forms.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ImageState tracks the image field of a form.
type ImageState int

const (
	// NoImage means no image is attached.
	NoImage ImageState = iota
	// ImageUnchanged means the edited product's stored image is retained.
	ImageUnchanged
	// ImageNew means the user picked or dropped a new file.
	ImageNew
)

func (s ImageState) String() string {
	switch s {
	case ImageUnchanged:
		return "unchanged"
	case ImageNew:
		return "new"
	default:
		return "none"
	}
}

var (
	// ErrSubmitInProgress is returned when Submit is called while a previous
	// submission is still pending.
	ErrSubmitInProgress = errors.New("a submission is already in progress")

	// ErrIncomplete matches every *IncompleteError.
	ErrIncomplete = errors.New("form is incomplete")

	// ErrProductGone is returned when the edited product no longer exists.
	ErrProductGone = errors.New("product no longer exists")
)

// IncompleteError lists the fields that blocked a submission.
type IncompleteError struct {
	Fields []string
}

func (e *IncompleteError) Error() string {
	return "form is incomplete: " + strings.Join(e.Fields, ", ")
}

// Is reports whether target is ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Values are the raw text fields of a submitted form.
type Values struct {
	Name  string
	Price string
}

// Session is the state of one product form. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	mode       Mode
	productID  string
	image      string
	state      ImageState
	dragging   bool
	submitting bool
}

// NewCreateSession starts an empty create form.
func NewCreateSession() *Session {
	return &Session{mode: ModeCreate}
}

// NewEditSession starts an edit form for product. Its stored image, if any,
// is retained until replaced or removed.
func NewEditSession(product domain.Product) *Session {
	s := &Session{
		mode:      ModeEdit,
		productID: product.ID,
		image:     product.Image,
	}
	if product.Image != "" {
		s.state = ImageUnchanged
	}
	return s
}

// Mode returns the form mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// ProductID returns the edited product id, empty in create mode.
func (s *Session) ProductID() string {
	return s.productID
}

// State returns the image state.
func (s *Session) State() ImageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Image returns the image the form currently shows: the stored image, a data
// URL of a new file, or empty.
func (s *Session) Image() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Dragging reports whether a drag is hovering the drop zone.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// Submitting reports whether a submission is pending.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Remove detaches the image.
func (s *Session) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = ""
	s.state = NoImage
}

func (s *Session) setNewImage(dataURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = dataURL
	s.state = ImageNew
}

// Submit validates values and calls the create or update operation. An
// incomplete form returns *IncompleteError without calling svc. In edit mode
// an image that was never replaced is left out of the update. After a
// successful call the session holds the stored image as ImageUnchanged.
func (s *Session) Submit(ctx context.Context, svc service.ProductService, values Values) (*domain.Product, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting = true
	image, state := s.image, s.state
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	name, price, err := parse(values, state)
	if err != nil {
		return nil, err
	}

	var product *domain.Product
	if s.mode == ModeCreate {
		product, err = svc.CreateProduct(ctx, domain.ProductInput{Name: name, Price: price, Image: image})
		if err != nil || product == nil {
			return product, err
		}
	} else {
		input := domain.ProductUpdateInput{Name: name, Price: price}
		if state == ImageNew {
			input.Image = &image
		}
		product, err = svc.UpdateProduct(ctx, s.productID, input)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductGone
		}
	}

	s.mu.Lock()
	s.image, s.state = product.Image, ImageUnchanged
	s.mu.Unlock()
	return product, nil
}

func parse(values Values, state ImageState) (string, float64, error) {
	var missing []string

	name := strings.TrimSpace(values.Name)
	if name == "" {
		missing = append(missing, "name")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(values.Price), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		missing = append(missing, "price")
	}

	if state == NoImage {
		missing = append(missing, "image")
	}

	if len(missing) > 0 {
		return "", 0, &IncompleteError{Fields: missing}
	}
	return name, price, nil
}
