package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultClient  ResultType = "client"
	ResultContent ResultType = "content"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	ClientID string     `json:"clientId,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text           string
	FilterType     ResultType // empty = all types
	FilterClientID string
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ClientRecord is the data we index for a client.
type ClientRecord struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
	Status   string `json:"status"`
}

// ContentRecord is the data we index for a content item.
type ContentRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	ClientID    string `json:"clientId"`
	Status      string `json:"status"`
}
