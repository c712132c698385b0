package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the field rules of a product: non-empty text, positive
// price, non-negative stock, optional image and rating in [1,10].
func (in ProductInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.add(fe.Field(), reason(fe))
	}
	return ve
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// number accepts a JSON number or a numeric string. Null and "" leave it unset.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = number{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = number{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return errNotNumber
		}
		*n = number{value: f, set: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return errNotNumber
	}
	*n = number{value: f, set: true}
	return nil
}

var errNotNumber = errors.New("must be a number")

// text accepts any JSON scalar as a string, since loosely typed clients send
// numbers where text is expected. Null leaves it unset.
type text struct {
	value string
	set   bool
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = text{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text{value: s, set: true}
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return errors.New("must be text")
	default:
		*t = text{value: string(b), set: true}
	}
	return nil
}

// productPayload is the untyped request body of create and update calls.
// Each field is decoded on its own so that one bad value reports as a field error.
type productPayload struct {
	ID          json.RawMessage `json:"id"`
	Name        json.RawMessage `json:"name"`
	Category    json.RawMessage `json:"category"`
	Description json.RawMessage `json:"description"`
	Price       json.RawMessage `json:"price"`
	Stock       json.RawMessage `json:"stock"`
	Image       json.RawMessage `json:"image"`
	Rating      json.RawMessage `json:"rating"`
}

// parsePayload turns a decoded body into a validated ProductInput. When
// withID is set the id field is required too and returned.
func parsePayload(p productPayload, withID bool) (string, ProductInput, error) {
	ve := &ValidationError{}

	var id string
	if withID {
		t := decodeText(ve, "id", p.ID)
		id = strings.TrimSpace(t.value)
		if id == "" {
			ve.add("id", "required")
		}
	}

	requiredText := func(field string, raw json.RawMessage) string {
		t := decodeText(ve, field, raw)
		v := strings.TrimSpace(t.value)
		if v == "" {
			ve.add(field, "required")
		}
		return v
	}

	in := ProductInput{
		Name:        requiredText("name", p.Name),
		Category:    requiredText("category", p.Category),
		Description: requiredText("description", p.Description),
		Image:       strings.TrimSpace(decodeText(ve, "image", p.Image).value),
	}

	if n := decodeNumber(ve, "price", p.Price); !n.set {
		ve.add("price", "required")
	} else {
		in.Price = n.value
	}

	if n := decodeNumber(ve, "stock", p.Stock); !n.set {
		ve.add("stock", "required")
	} else if n.value != math.Trunc(n.value) || math.Abs(n.value) > math.MaxInt32 {
		ve.add("stock", "must be an integer")
	} else {
		in.Stock = int(n.value)
	}

	// A zero rating means "not rated".
	if n := decodeNumber(ve, "rating", p.Rating); n.set && n.value != 0 {
		r := n.value
		in.Rating = &r
	}

	if !ve.empty() {
		return "", ProductInput{}, ve
	}
	if err := in.Validate(); err != nil {
		return "", ProductInput{}, err
	}
	return id, in, nil
}

func decodeText(ve *ValidationError, field string, raw json.RawMessage) text {
	var t text
	if len(raw) == 0 {
		return t
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		ve.add(field, err.Error())
	}
	return t
}

func decodeNumber(ve *ValidationError, field string, raw json.RawMessage) number {
	var n number
	if len(raw) == 0 {
		return n
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		ve.add(field, errNotNumber.Error())
		return number{}
	}
	return n
}

// ParseInput validates a create payload.
func ParseInput(body []byte) (ProductInput, error) {
	p, err := unmarshalPayload(body)
	if err != nil {
		return ProductInput{}, err
	}
	_, in, err := parsePayload(p, false)
	return in, err
}

// ParseUpdate validates an update payload, which carries the id in the body.
func ParseUpdate(body []byte) (string, ProductInput, error) {
	p, err := unmarshalPayload(body)
	if err != nil {
		return "", ProductInput{}, err
	}
	return parsePayload(p, true)
}

// errBadJSON marks a body that is not a single JSON object.
var errBadJSON = errors.New("bad json")

func unmarshalPayload(body []byte) (productPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	var p productPayload
	if err := dec.Decode(&p); err != nil {
		return productPayload{}, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return productPayload{}, fmt.Errorf("%w: extra data after json object", errBadJSON)
	}
	return p, nil
}
