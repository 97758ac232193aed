package adsapi

// TokenGrant 刷新授权成功后的结果
// 平台可能轮换 refresh token，NewRefreshToken 为空表示沿用旧值
type TokenGrant struct {
	AccessToken     string `json:"access_token"`
	ExpiresIn       int    `json:"expires_in"` // 秒
	NewRefreshToken string `json:"refresh_token,omitempty"`
	TokenType       string `json:"token_type,omitempty"`
}

// AccountMetrics 账户级汇总指标
type AccountMetrics struct {
	ExternalID    string  `json:"external_id"`
	SpendTotal    float64 `json:"spend_total"`
	AdCount       int     `json:"ad_count"`
	CampaignCount int     `json:"campaign_count"`
	HealthStatus  string  `json:"health_status"`
	BillingStatus string  `json:"billing_status"`
	Currency      string  `json:"currency"`
}

// Campaign 广告系列
type Campaign struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Budget     float64 `json:"budget"`
	SpendTotal float64 `json:"spend_total"`
}

// AdGroup 广告组
type AdGroup struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	AdCount    int    `json:"ad_count"`
}

// Keyword 关键词
type Keyword struct {
	ID         string  `json:"id"`
	AdGroupID  string  `json:"ad_group_id"`
	CampaignID string  `json:"campaign_id"`
	Text       string  `json:"text"`
	MatchType  string  `json:"match_type"`
	MaxCPC     float64 `json:"max_cpc"`
	Status     string  `json:"status"`
}

// ListingFilter 列表查询过滤条件
// 全零值表示整资源查询（读路径只有这种情况才回写缓存）
type ListingFilter struct {
	CampaignID string
	AdGroupID  string
}

// IsEmpty 是否为整资源查询
func (f ListingFilter) IsEmpty() bool {
	return f.CampaignID == "" && f.AdGroupID == ""
}

// Matches 过滤条件是否命中该 campaign
func (c Campaign) Matches(f ListingFilter) bool {
	return f.CampaignID == "" || f.CampaignID == c.ID
}

// Matches 过滤条件是否命中该 ad group
func (g AdGroup) Matches(f ListingFilter) bool {
	if f.CampaignID != "" && f.CampaignID != g.CampaignID {
		return false
	}
	return f.AdGroupID == "" || f.AdGroupID == g.ID
}

// Matches 过滤条件是否命中该 keyword
func (k Keyword) Matches(f ListingFilter) bool {
	if f.CampaignID != "" && f.CampaignID != k.CampaignID {
		return false
	}
	return f.AdGroupID == "" || f.AdGroupID == k.AdGroupID
}

// 内部响应包装
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

type metricsResp struct {
	Result AccountMetrics `json:"result"`
}

type campaignListResp struct {
	Count   int        `json:"count"`
	Results []Campaign `json:"results"`
}

type adGroupListResp struct {
	Count   int       `json:"count"`
	Results []AdGroup `json:"results"`
}

type keywordListResp struct {
	Count   int       `json:"count"`
	Results []Keyword `json:"results"`
}

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
