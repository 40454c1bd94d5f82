package query

// Allow-lists of the list endpoints. Keys are the names clients send in the
// column parameter; values are storage columns.
var (
	PostSchema = NewSchema("posts", map[string]string{
		"slug":  "slug",
		"title": "title",
		"body":  "body",
	})

	UserSchema = NewSchema("users", map[string]string{
		"email": "email",
		"name":  "name",
	})

	CategorySchema = NewSchema("categories", map[string]string{
		"name": "name",
	})
)
