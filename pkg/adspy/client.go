package adspy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client AdSpy 旁路服务客户端
// AdSpy 是独立部署的 Python 服务（Playwright 抓取 Google 竞价广告），
// 以共享 API Key 鉴权
type Client struct {
	BaseURL string
	APIKey  string
	client  *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(90 * time.Second), // 浏览器抓取较慢，超时放宽
	}
}

// ==================== 请求/响应结构 ====================

type SearchReq struct {
	APIKey     string `json:"api_key"`
	Keyword    string `json:"keyword"`
	Location   string `json:"location"`    // 默认 us
	NumResults int    `json:"num_results"` // 默认 10
}

// SponsoredAd 一条竞价广告抓取结果
type SponsoredAd struct {
	Position      int      `json:"position"`
	BlockPosition string   `json:"block_position"`
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	DisplayURL    string   `json:"display_url"`
	Description   string   `json:"description"`
	Sitelinks     []string `json:"sitelinks,omitempty"`
	Source        string   `json:"source"`
}

type SearchResp struct {
	Success   bool          `json:"success"`
	Keyword   string        `json:"keyword"`
	Ads       []SponsoredAd `json:"ads"`
	Timestamp string        `json:"timestamp"`
	Source    string        `json:"source"`
	Error     string        `json:"error,omitempty"`
}

type healthResp struct {
	Status string `json:"status"`
}

// ==================== 接口方法 ====================

// Search 按关键词抓取竞价广告
func (c *Client) Search(ctx context.Context, keyword, location string, numResults int) (*SearchResp, error) {
	if location == "" {
		location = "us"
	}
	if numResults <= 0 {
		numResults = 10
	}

	var body SearchResp
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&SearchReq{
			APIKey:     c.APIKey,
			Keyword:    keyword,
			Location:   location,
			NumResults: numResults,
		}).
		SetResult(&body).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("adspy 请求失败: %v", err)
	}
	if resp.StatusCode() == 401 {
		return nil, fmt.Errorf("adspy api key 无效")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("adspy 服务异常: %d", resp.StatusCode())
	}

	return &body, nil
}

// Health 健康检查
func (c *Client) Health(ctx context.Context) error {
	var body healthResp
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/health")
	if err != nil {
		return fmt.Errorf("adspy 不可达: %v", err)
	}
	if resp.StatusCode() != 200 || body.Status != "healthy" {
		return fmt.Errorf("adspy 不健康: %d", resp.StatusCode())
	}
	return nil
}
