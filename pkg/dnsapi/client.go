package dnsapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client DNS 服务商 API 客户端（zone/record 级的最小封装）
// 落地页域名指向与验证用
type Client struct {
	BaseURL  string
	APIToken string
	client   *resty.Client
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIToken: apiToken,
		client: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiToken).
			SetTimeout(15 * time.Second),
	}
}

// ==================== 数据结构 ====================

type Record struct {
	ID      string `json:"id,omitempty"`
	ZoneID  string `json:"zone_id,omitempty"`
	Type    string `json:"type"` // A / CNAME / TXT
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

type recordResp struct {
	Success bool   `json:"success"`
	Result  Record `json:"result"`
}

type recordListResp struct {
	Success bool     `json:"success"`
	Result  []Record `json:"result"`
}

// ==================== 接口方法 ====================

// CreateRecord 在 zone 下创建解析记录
func (c *Client) CreateRecord(ctx context.Context, zoneID string, rec Record) (*Record, error) {
	var body recordResp
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(rec).
		SetResult(&body).
		Post(fmt.Sprintf("/zones/%s/dns_records", zoneID))
	if err != nil {
		return nil, fmt.Errorf("dns 请求失败: %v", err)
	}
	if resp.StatusCode() != 200 || !body.Success {
		return nil, fmt.Errorf("dns 创建记录失败: %d", resp.StatusCode())
	}
	return &body.Result, nil
}

// LookupRecord 按名称查找记录，未找到返回 nil
func (c *Client) LookupRecord(ctx context.Context, zoneID, name string) (*Record, error) {
	var body recordListResp
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(&body).
		Get(fmt.Sprintf("/zones/%s/dns_records", zoneID))
	if err != nil {
		return nil, fmt.Errorf("dns 请求失败: %v", err)
	}
	if resp.StatusCode() != 200 || !body.Success {
		return nil, fmt.Errorf("dns 查询失败: %d", resp.StatusCode())
	}
	if len(body.Result) == 0 {
		return nil, nil
	}
	return &body.Result[0], nil
}

// DeleteRecord 删除解析记录
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID))
	if err != nil {
		return fmt.Errorf("dns 请求失败: %v", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("dns 删除记录失败: %d", resp.StatusCode())
	}
	return nil
}
