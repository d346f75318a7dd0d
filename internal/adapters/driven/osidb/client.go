// Package osidb provides a flaw source adapter for the Open Security Issue
// Database REST API. Requests are token-authenticated and throttled; flaws
// still under embargo are withheld unless the client is explicitly
// configured to include them.
package osidb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.FlawSource = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// flawFields limits flaw retrieval to the fields the analysis
	// features consume.
	flawFields = "cve_id,title,cve_description,cvss_scores,statement,components,comments,comment_zero,affects,references,embargoed"

	// componentFlawFields is the narrower projection used when listing
	// flaws by component.
	componentFlawFields = "cve_id,title,cve_description,impact,statement,comment_zero,embargoed"
)

// Config holds configuration for the OSIDB client.
type Config struct {
	// BaseURL is the OSIDB server URL (required).
	BaseURL string

	// Token is the service account token. Empty disables the
	// Authorization header for deployments behind their own auth.
	Token string

	// IncludeEmbargoed allows retrieval of embargoed flaws. Off by
	// default; most callers must never see embargoed data.
	IncludeEmbargoed bool

	// RequestsPerSecond overrides the proactive throttle rate.
	RequestsPerSecond float64

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client talks to the OSIDB flaws API.
type Client struct {
	client           *http.Client
	baseURL          string
	token            string
	includeEmbargoed bool
	limiter          *rateLimiter
}

// NewClient creates a new OSIDB client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: OSIDB server URL is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:           &http.Client{Timeout: cfg.Timeout},
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		token:            cfg.Token,
		includeEmbargoed: cfg.IncludeEmbargoed,
		limiter:          newRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// flawPayload is the OSIDB flaw wire format.
type flawPayload struct {
	CVEID       string `json:"cve_id"`
	Title       string `json:"title"`
	Description string `json:"cve_description"`
	Statement   string `json:"statement"`
	CommentZero string `json:"comment_zero"`
	Impact      string `json:"impact"`
	Embargoed   bool   `json:"embargoed"`
	Comments    []struct {
		Text string `json:"text"`
	} `json:"comments"`
	Components []string `json:"components"`
	Affects    []struct {
		PSModule     string `json:"ps_module"`
		PSComponent  string `json:"ps_component"`
		Affectedness string `json:"affectedness"`
	} `json:"affects"`
	References []struct {
		URL string `json:"url"`
	} `json:"references"`
	CVSSScores []struct {
		Issuer  string  `json:"issuer"`
		Version string  `json:"cvss_version"`
		Vector  string  `json:"vector"`
		Score   float64 `json:"score"`
	} `json:"cvss_scores"`
}

// listPayload is the OSIDB paginated list wire format.
type listPayload struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []flawPayload `json:"results"`
}

// Retrieve fetches a single flaw by CVE ID. Embargoed flaws surface
// domain.ErrEmbargoed unless the client was configured to include them.
func (c *Client) Retrieve(ctx context.Context, cveID string) (*domain.Flaw, error) {
	if err := domain.ValidateCVEID(cveID); err != nil {
		return nil, err
	}

	logger.Debug("retrieving flaw %s from OSIDB", cveID)

	query := url.Values{}
	query.Set("include_fields", flawFields)

	var payload flawPayload
	status, err := c.get(ctx, "/osidb/api/v1/flaws/"+url.PathEscape(cveID), query, &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: flaw %s", domain.ErrNotFound, cveID)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("osidb: status %d retrieving %s", status, cveID)
	}

	if payload.Embargoed && !c.includeEmbargoed {
		logger.Debug("flaw %s is embargoed and retrieval is disabled", cveID)
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbargoed, cveID)
	}

	return toFlaw(payload), nil
}

// ListComponentFlaws fetches every flaw affecting a component, following
// pagination. Embargoed flaws are filtered out unless configured in.
func (c *Client) ListComponentFlaws(ctx context.Context, component string) ([]*domain.Flaw, error) {
	if component == "" {
		return nil, fmt.Errorf("%w: component name is required", domain.ErrInvalidInput)
	}

	logger.Debug("listing flaws for component %q", component)

	query := url.Values{}
	query.Set("affects__ps_component", component)
	query.Set("include_fields", componentFlawFields)

	var flaws []*domain.Flaw
	path := "/osidb/api/v1/flaws"
	for {
		var payload listPayload
		status, err := c.get(ctx, path, query, &payload)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("osidb: status %d listing flaws for %q", status, component)
		}

		for _, item := range payload.Results {
			if item.Embargoed && !c.includeEmbargoed {
				continue
			}
			flaws = append(flaws, toFlaw(item))
		}

		if payload.Next == nil || *payload.Next == "" {
			break
		}
		next, err := url.Parse(*payload.Next)
		if err != nil {
			return nil, fmt.Errorf("osidb: parsing next page URL: %w", err)
		}
		path = next.Path
		query = next.Query()
	}

	return flaws, nil
}

// Ping validates connectivity and credentials against the status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	status, err := c.get(ctx, "/osidb/healthy", nil, &payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("osidb: status %d from health check", status)
	}
	return nil
}

// get performs a throttled GET and decodes the body into out when the
// response is a 200. Non-OK statuses are returned undecoded for the caller
// to map; transport failures are errors.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return 0, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osidb unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := c.limiter.check(resp); err != nil {
		return resp.StatusCode, err
	}

	// Error bodies are not guaranteed to be JSON; leave non-OK statuses
	// for the caller to map.
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// toFlaw maps the wire format to the domain type.
func toFlaw(payload flawPayload) *domain.Flaw {
	flaw := &domain.Flaw{
		CVEID:       payload.CVEID,
		Title:       payload.Title,
		Description: payload.Description,
		Statement:   payload.Statement,
		CommentZero: payload.CommentZero,
		Impact:      payload.Impact,
		Components:  payload.Components,
		Embargoed:   payload.Embargoed,
	}
	for _, comment := range payload.Comments {
		flaw.Comments = append(flaw.Comments, comment.Text)
	}
	for _, affect := range payload.Affects {
		flaw.Affects = append(flaw.Affects, domain.Affect{
			Product:   affect.PSModule,
			Component: affect.PSComponent,
			State:     affect.Affectedness,
		})
	}
	for _, ref := range payload.References {
		flaw.References = append(flaw.References, ref.URL)
	}
	for _, score := range payload.CVSSScores {
		flaw.CVSSScores = append(flaw.CVSSScores, domain.CVSSScore{
			Issuer:  score.Issuer,
			Version: score.Version,
			Vector:  score.Vector,
			Score:   score.Score,
		})
	}
	return flaw
}
