package thirdpart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// SubgraphOptions subgraph 客户端配置
type SubgraphOptions struct {
	URL           string
	BatchSize     int           // 每页条数，thegraph 上限 1000
	Concurrency   int           // 全量拉取时并发请求的页数
	ExpectedTiles int           // 预估总数，用于规划并发分页与进度
	Timeout       time.Duration // 单次请求超时
	RateLimit     float64       // 每秒请求数，<=0 表示不限
}

type SubgraphClient struct {
	opts    SubgraphOptions
	http    *http.Client
	limiter *rate.Limiter
}

func NewSubgraphClient(opts SubgraphOptions) *SubgraphClient {
	if opts.BatchSize <= 0 || opts.BatchSize > 1000 {
		opts.BatchSize = 1000
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Concurrency)
	}
	return &SubgraphClient{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query 执行一次 GraphQL 查询，把 data 解码到 out
func (c *SubgraphClient) Query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "atlas-api/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("subgraph status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var raw graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(raw.Errors) > 0 {
		msgs := make([]string, len(raw.Errors))
		for i, e := range raw.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("subgraph errors: %s", strings.Join(msgs, "; "))
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return fmt.Errorf("subgraph returned no data")
	}
	return json.Unmarshal(raw.Data, out)
}
