package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/corvid-labs/postboard/internal/domain"
)

// Query parameter names read by ParseParams.
const (
	ParamSearch = "search"
	ParamColumn = "column"
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSort   = "sortType"
)

var (
	// ErrUnknownField is returned when a column is not in the entity's allow-list.
	ErrUnknownField = fmt.Errorf("unknown field: %w", domain.ErrValidation)

	// ErrInvalidSortDirection is returned for a sort direction other than asc or desc.
	ErrInvalidSortDirection = fmt.Errorf("invalid sort direction: %w", domain.ErrValidation)
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order sorts by one storage column.
type Order struct {
	Column    string
	Direction Direction
}

// Filter is a case-insensitive substring match of Text against Column.
type Filter struct {
	Field  string
	Column string
	Text   string
}

// Pattern returns Text as a LIKE pattern with its wildcards escaped, so that
// '%' and '_' in user input match literally.
func (f Filter) Pattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(f.Text) + "%"
}

// Matches reports whether value satisfies the filter using the same
// case-insensitive substring rule the SQL rendering applies.
func (f Filter) Matches(value string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(f.Text))
}

// Page is a window over the ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// Spec is the query plan produced by Builder. A nil Filter means no filter
// and a nil Page means the full result set.
type Spec struct {
	Filter *Filter
	Sort   []Order
	Page   *Page
}

// Window returns the [start, end) bounds of the page over n ordered rows.
func (s Spec) Window(n int) (start, end int) {
	if s.Page == nil {
		return 0, n
	}
	start = min(s.Page.Offset, n)
	end = min(start+s.Page.Limit, n)
	return start, end
}

// Params are the raw, unvalidated list parameters of a request.
type Params struct {
	Search string
	Column string
	Page   string
	Limit  string
	Sort   string
}

// ParseParams extracts Params from URL query values.
func ParseParams(values url.Values) Params {
	return Params{
		Search: values.Get(ParamSearch),
		Column: strings.TrimSpace(values.Get(ParamColumn)),
		Page:   strings.TrimSpace(values.Get(ParamPage)),
		Limit:  strings.TrimSpace(values.Get(ParamLimit)),
		Sort:   strings.TrimSpace(values.Get(ParamSort)),
	}
}

// Schema is the allow-list of filterable and sortable fields of one entity.
type Schema struct {
	entity       string
	fields       map[string]string
	defaultOrder []Order
}

// NewSchema creates a Schema for entity. fields maps logical field names to
// storage columns. When defaultOrder is empty, created_at ascending is used.
func NewSchema(entity string, fields map[string]string, defaultOrder ...Order) Schema {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	if len(defaultOrder) == 0 {
		defaultOrder = []Order{{Column: "created_at", Direction: Asc}}
	}
	return Schema{entity: entity, fields: copied, defaultOrder: defaultOrder}
}

// Entity returns the entity name the schema describes.
func (s Schema) Entity() string {
	return s.entity
}

// Column returns the storage column for a logical field name.
func (s Schema) Column(field string) (string, bool) {
	col, ok := s.fields[field]
	return col, ok
}

// Builder turns Params into a Spec. It holds no state; the zero value is usable.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// tieBreaker keeps ordering total, so pages never overlap or skip rows.
var tieBreaker = Order{Column: "id", Direction: Asc}

// Build validates params against schema and returns the query plan.
func (b *Builder) Build(schema Schema, params Params) (Spec, error) {
	var spec Spec

	// Sort applies to the chosen column only and is ignored without one.
	if params.Column != "" {
		direction, err := parseDirection(params.Sort)
		if err != nil {
			return Spec{}, err
		}
		column, ok := schema.Column(params.Column)
		if !ok {
			return Spec{}, domain.NewValidationError(
				"column",
				fmt.Sprintf("%q is not a filterable field of %s", params.Column, schema.entity),
				ErrUnknownField,
			)
		}
		if params.Search != "" {
			spec.Filter = &Filter{Field: params.Column, Column: column, Text: params.Search}
		}
		spec.Sort = append(spec.Sort, Order{Column: column, Direction: direction})
	} else {
		spec.Sort = append(spec.Sort, schema.defaultOrder...)
	}

	if last := spec.Sort[len(spec.Sort)-1]; last.Column != tieBreaker.Column {
		spec.Sort = append(spec.Sort, tieBreaker)
	}

	spec.Page = parsePage(params.Page, params.Limit)
	return spec, nil
}

func parseDirection(raw string) (Direction, error) {
	switch strings.ToLower(raw) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return "", domain.NewValidationError("sortType", "must be asc or desc", ErrInvalidSortDirection)
	}
}

// parsePage returns nil unless both values are positive integers. Values are
// bounded to 32 bits so the offset cannot overflow.
func parsePage(rawPage, rawLimit string) *Page {
	page, err := strconv.ParseInt(rawPage, 10, 32)
	if err != nil || page <= 0 {
		return nil
	}
	limit, err := strconv.ParseInt(rawLimit, 10, 32)
	if err != nil || limit <= 0 {
		return nil
	}
	return &Page{Offset: int((page - 1) * limit), Limit: int(limit)}
}

