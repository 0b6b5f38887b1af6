package ledger

import "job-ledger/internal/entity"

// Response is the observable outcome of a successful command.
type Response struct {
	Attributes []entity.Attribute `json:"attributes"`
}

func NewResponse() *Response {
	return &Response{Attributes: []entity.Attribute{}}
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, entity.Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the first value recorded under key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
