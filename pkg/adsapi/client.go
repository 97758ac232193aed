package adsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

type Config struct {
	BaseURL      string // 广告平台 API 根地址
	TokenURL     string // OAuth token 端点，默认 {BaseURL}/oauth/token
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// ==================== 客户端 ====================

// Client 广告平台 API 客户端
// 对上层是黑盒：拿 access token + 账户 ID，返回数据或分类后的 *APIError
type Client struct {
	cfg    *Config
	client *resty.Client
}

func NewClient(cfg *Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = cfg.BaseURL + "/oauth/token"
	}

	return &Client{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout),
	}
}

// ==================== Token 刷新 ====================

// RefreshToken 用 refresh token 换新的 access token
// 失败时返回 *APIError，调用方据 Retryable 分类处理
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	var body tokenResp

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"refresh_token": refreshToken,
		}).
		SetResult(&body).
		Post(c.cfg.TokenURL)
	if err != nil {
		return nil, netError(err)
	}

	if resp.StatusCode() != 200 {
		// 错误响应体里带平台错误码
		var eb tokenResp
		_ = json.Unmarshal(resp.Body(), &eb)
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Code:       eb.Error,
			Message:    eb.ErrorDesc,
			Retryable:  classify(resp.StatusCode(), eb.Error),
		}
	}

	return &TokenGrant{
		AccessToken:     body.AccessToken,
		ExpiresIn:       body.ExpiresIn,
		NewRefreshToken: body.RefreshToken,
		TokenType:       body.TokenType,
	}, nil
}

// ==================== 指标与列表 ====================

// FetchMetrics 抓取账户级汇总指标
func (c *Client) FetchMetrics(ctx context.Context, accessToken, externalID string) (*AccountMetrics, error) {
	var body metricsResp
	if err := c.get(ctx, accessToken, fmt.Sprintf("/v2/customers/%s/metrics", externalID), nil, &body); err != nil {
		return nil, err
	}
	return &body.Result, nil
}

// FetchCampaigns 抓取 campaign 列表
func (c *Client) FetchCampaigns(ctx context.Context, accessToken, externalID string, f ListingFilter) ([]Campaign, error) {
	var body campaignListResp
	if err := c.get(ctx, accessToken, fmt.Sprintf("/v2/customers/%s/campaigns", externalID), f.query(), &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// FetchAdGroups 抓取 ad group 列表
func (c *Client) FetchAdGroups(ctx context.Context, accessToken, externalID string, f ListingFilter) ([]AdGroup, error) {
	var body adGroupListResp
	if err := c.get(ctx, accessToken, fmt.Sprintf("/v2/customers/%s/ad_groups", externalID), f.query(), &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// FetchKeywords 抓取 keyword 列表
func (c *Client) FetchKeywords(ctx context.Context, accessToken, externalID string, f ListingFilter) ([]Keyword, error) {
	var body keywordListResp
	if err := c.get(ctx, accessToken, fmt.Sprintf("/v2/customers/%s/keywords", externalID), f.query(), &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// ==================== 内部方法 ====================

func (f ListingFilter) query() map[string]string {
	q := map[string]string{}
	if f.CampaignID != "" {
		q["campaign_id"] = f.CampaignID
	}
	if f.AdGroupID != "" {
		q["ad_group_id"] = f.AdGroupID
	}
	return q
}

func (c *Client) get(ctx context.Context, accessToken, path string, query map[string]string, out interface{}) error {
	req := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(out)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return netError(err)
	}

	if resp.StatusCode() != 200 {
		var eb errorResp
		_ = json.Unmarshal(resp.Body(), &eb)
		msg := eb.Message
		if msg == "" {
			msg = resp.Status()
		}
		return &APIError{
			StatusCode: resp.StatusCode(),
			Code:       eb.Error,
			Message:    msg,
			Retryable:  classify(resp.StatusCode(), eb.Error),
		}
	}
	return nil
}
