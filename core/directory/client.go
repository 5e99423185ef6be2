package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ontime/core"
)

// Client queries the institution directory HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Tracker.DirectoryURL, "/"),
		http:    &http.Client{Timeout: conf.Tracker.RequestTimeout},
	}
}

type institutionsPayload struct {
	Institutions []Institution `json:"institutions"`
}

// Search queries the directory by name substring. An empty or whitespace-only
// query yields an empty result set without a network call.
func (c *Client) Search(ctx context.Context, query string) ([]Institution, error) {
	query = core.CleanString(query)
	if query == "" {
		return []Institution{}, nil
	}
	return c.get(ctx, "/v1/institutions/search?q="+url.QueryEscape(query))
}

// GetByIDs fetches a read-only snapshot of the given institutions.
func (c *Client) GetByIDs(ctx context.Context, ids ...int) ([]Institution, error) {
	if len(ids) == 0 {
		return []Institution{}, nil
	}
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, strconv.Itoa(id))
	}
	return c.get(ctx, "/v1/institutions?ids="+strings.Join(strs, ","))
}

func (c *Client) get(ctx context.Context, path string) ([]Institution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building directory request")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "querying directory")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("directory returned status %d", res.StatusCode)
	}
	var payload institutionsPayload
	if err = json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding directory response")
	}
	if payload.Institutions == nil {
		payload.Institutions = []Institution{}
	}
	return payload.Institutions, nil
}

// SearchResult is one settled query's outcome.
type SearchResult struct {
	Query        string
	Institutions []Institution
	Err          error
}

// Debounced wraps a Client so only the query left settled for the full
// debounce window is sent. A generation counter plus context cancellation
// guarantees a stale response can never overwrite a newer one.
type Debounced struct {
	client *Client
	delay  time.Duration

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc

	results chan SearchResult
}

func NewDebounced(client *Client, delay time.Duration) *Debounced {
	return &Debounced{
		client:  client,
		delay:   delay,
		results: make(chan SearchResult, 1),
	}
}

// Results delivers at most the latest settled result; older undelivered
// results are dropped.
func (d *Debounced) Results() <-chan SearchResult { return d.results }

// Submit registers a keystroke-settled query. Prior pending or in-flight
// queries are superseded.
func (d *Debounced) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel() // abandon the in-flight request
		d.cancel = nil
	}

	query = core.CleanString(query)
	if query == "" {
		d.deliver(SearchResult{Query: "", Institutions: []Institution{}})
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(gen, query) })
}

// Close drops any pending query. In-flight requests are abandoned.
func (d *Debounced) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debounced) run(gen uint64, query string) {
	ctx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	if gen != d.gen { // superseded while the timer fired
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancel = cancel
	d.mu.Unlock()

	insts, err := d.client.Search(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	cancel()
	if gen != d.gen { // a newer query won; discard this response
		return
	}
	d.cancel = nil
	d.deliver(SearchResult{Query: query, Institutions: insts, Err: err})
}

// deliver must be called with d.mu held.
func (d *Debounced) deliver(res SearchResult) {
	select {
	case d.results <- res:
	default:
		select { // displace the stale undelivered result
		case <-d.results:
		default:
		}
		d.results <- res
	}
}
