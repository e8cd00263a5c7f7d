package apifeatures

// Kind is the value type of a queryable field and decides how raw query
// string values are coerced.
type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Field maps a public query-string name to a database column.
type Field struct {
	Name   string
	Column string
	Kind   Kind
}

// FieldSet is the whitelist of fields a query may filter, sort or select on.
type FieldSet map[string]Field

// NewFieldSet indexes fields by their public name.
func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f.Name] = f
	}
	return set
}

// ProductFields is the queryable surface of the products table.
var ProductFields = NewFieldSet(
	Field{Name: "id", Column: "id", Kind: KindString},
	Field{Name: "name", Column: "name", Kind: KindString},
	Field{Name: "slug", Column: "slug", Kind: KindString},
	Field{Name: "description", Column: "description", Kind: KindString},
	Field{Name: "price", Column: "price", Kind: KindDecimal},
	Field{Name: "discount", Column: "discount", Kind: KindFloat},
	Field{Name: "stock", Column: "stock", Kind: KindInt},
	Field{Name: "isNew", Column: "is_new", Kind: KindBool},
	Field{Name: "isTrending", Column: "is_trending", Kind: KindBool},
	Field{Name: "isBestSeller", Column: "is_best_seller", Kind: KindBool},
	Field{Name: "isFeatured", Column: "is_featured", Kind: KindBool},
	Field{Name: "categoryId", Column: "category_id", Kind: KindString},
	Field{Name: "createdAt", Column: "created_at", Kind: KindTime},
	Field{Name: "updatedAt", Column: "updated_at", Kind: KindTime},
)
