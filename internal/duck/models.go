package duck

// IDField is the document key holding a duck's identifier.
const IDField = "_id"

// Duck is a stored duck document. Apart from the identifier under IDField
// its fields are supplied by the caller and have no fixed shape.
type Duck map[string]interface{}

// ID returns the identifier, or "" when the document carries none.
func (d Duck) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Fields is a caller supplied set of duck fields used for create and update.
type Fields map[string]interface{}

// WithoutID returns a copy of f with the identifier key removed.
func (f Fields) WithoutID() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// UpdateResult is the store's outcome of an update.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult is the store's outcome of a delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
