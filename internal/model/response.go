package model

import "strings"

// Response is a successful gateway answer. Data holds the decoded payload
// unmodified; the accessors only read from it.
type Response struct {
	StatusCode int
	Raw        []byte
	Data       map[string]any
}

// OperationLink is one entry of the gateway's operations list.
type OperationLink struct {
	Method      string `json:"method"`
	Href        string `json:"href"`
	Rel         string `json:"rel"`
	ContentType string `json:"contentType,omitempty"`
}

var resourceKeys = []string{"payment", "paymentOrder", "paymentorder", "capture", "cancellation", "reversal"}

// Resource returns the primary resource object of the payload.
func (r *Response) Resource() map[string]any {
	if r == nil || r.Data == nil {
		return nil
	}
	for _, key := range resourceKeys {
		if res, ok := r.Data[key].(map[string]any); ok {
			return res
		}
	}
	return nil
}

// ID returns the href-style id of the primary resource, e.g. /psp/creditcard/payments/<uuid>.
func (r *Response) ID() string {
	return stringField(r.Resource(), "id")
}

func (r *Response) State() string {
	return stringField(r.Resource(), "state")
}

// TransactionID returns the id of the transaction embedded in a capture, cancellation or reversal answer.
func (r *Response) TransactionID() string {
	res := r.Resource()
	if res == nil {
		return ""
	}
	if tx, ok := res["transaction"].(map[string]any); ok {
		return stringField(tx, "id")
	}
	return ""
}

func (r *Response) Operations() []OperationLink {
	if r == nil || r.Data == nil {
		return nil
	}
	raw, ok := r.Data["operations"].([]any)
	if !ok {
		return nil
	}
	links := make([]OperationLink, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		links = append(links, OperationLink{
			Method:      stringField(m, "method"),
			Href:        stringField(m, "href"),
			Rel:         stringField(m, "rel"),
			ContentType: stringField(m, "contentType"),
		})
	}
	return links
}

// Operation finds an operation link by rel, case-insensitively.
func (r *Response) Operation(rel string) (OperationLink, bool) {
	for _, op := range r.Operations() {
		if strings.EqualFold(op.Rel, rel) {
			return op, true
		}
	}
	return OperationLink{}, false
}

// Get walks nested objects by key.
func (r *Response) Get(path ...string) (any, bool) {
	if r == nil || r.Data == nil {
		return nil, false
	}
	var cur any = r.Data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
