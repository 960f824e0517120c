package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("catalog config invalid")
	ErrRequestFailed   = errors.New("catalog request failed")
	ErrResponseInvalid = errors.New("catalog response invalid")
	ErrNotFound        = errors.New("catalog resource not found")
)

const (
	DefaultBaseURL  = "https://www.surfstationstore.com"
	MaxPageLimit    = 250
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 16 << 20
)

// Config 店铺目录接口配置
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
}

// Client 店铺目录 HTTP 客户端（只读）
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建目录客户端，httpClient 为空时使用默认客户端
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.normalize()
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// BaseURL 返回目录地址
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

type productEnvelope struct {
	Product *Product `json:"product"`
}

type collectionsEnvelope struct {
	Collections []Collection `json:"collections"`
}

// FetchProducts 拉取商品列表
func (c *Client) FetchProducts(ctx context.Context, limit int) ([]Product, error) {
	var body productsEnvelope
	if err := c.getJSON(ctx, "/products.json", limitQuery(limit), &body); err != nil {
		return nil, err
	}
	return nonNilProducts(body.Products), nil
}

// FetchProductsByCollection 拉取集合内商品
func (c *Client) FetchProductsByCollection(ctx context.Context, handle string, limit int) ([]Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: collection handle is required", ErrRequestFailed)
	}
	var body productsEnvelope
	endpoint := "/collections/" + url.PathEscape(handle) + "/products.json"
	if err := c.getJSON(ctx, endpoint, limitQuery(limit), &body); err != nil {
		return nil, err
	}
	return nonNilProducts(body.Products), nil
}

// FetchProduct 按 handle 拉取单个商品，不存在时返回 ErrNotFound
func (c *Client) FetchProduct(ctx context.Context, handle string) (*Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: product handle is required", ErrRequestFailed)
	}
	var body productEnvelope
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(handle)+".json", nil, &body); err != nil {
		return nil, err
	}
	if body.Product == nil {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, handle)
	}
	return body.Product, nil
}

// FetchCollections 拉取集合列表
func (c *Client) FetchCollections(ctx context.Context, limit int) ([]Collection, error) {
	var body collectionsEnvelope
	if err := c.getJSON(ctx, "/collections.json", limitQuery(limit), &body); err != nil {
		return nil, err
	}
	if body.Collections == nil {
		return []Collection{}, nil
	}
	return body.Collections, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	target := c.cfg.BaseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRequestFailed, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s status %d", ErrResponseInvalid, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s failed", ErrResponseInvalid, endpoint)
	}
	return nil
}

func (c *Client) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// NormalizeLimit 限制分页大小在 [1, MaxPageLimit]，非正数使用 fallback
func NormalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		limit = MaxPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return limit
}

func limitQuery(limit int) url.Values {
	return url.Values{"limit": []string{strconv.Itoa(NormalizeLimit(limit, MaxPageLimit))}}
}

func nonNilProducts(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}
