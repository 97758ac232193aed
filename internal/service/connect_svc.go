package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/crypto"
	"magiops_v1_202608/pkg/utils"
)

// ConnectConfig 广告平台 OAuth 授权配置
type ConnectConfig struct {
	AuthURL     string // 平台授权页
	TokenURL    string // token 交换端点
	ClientID    string
	CallbackURL string // 必须与平台后台登记的完全一致
	Scopes      string
}

// ConnectService 授权连接的接入与解绑
// 新授权走 PKCE：生成跳转链接 -> 平台回调 -> code 换 token 入库
type ConnectService struct {
	connRepo repository.ConnectionRepository
	cipher   *crypto.TokenCipher
	cfg      ConnectConfig
	client   *resty.Client
}

// NewConnectService 工厂方法
func NewConnectService(connRepo repository.ConnectionRepository, cipher *crypto.TokenCipher, cfg ConnectConfig) *ConnectService {
	return &ConnectService{
		connRepo: connRepo,
		cipher:   cipher,
		cfg:      cfg,
		client:   resty.New().SetTimeout(30 * time.Second),
	}
}

// GenerateLoginURL 生成授权跳转链接
// connectionID=0 表示新建连接（回调时落库），否则为既有连接重新授权
func (s *ConnectService) GenerateLoginURL(ctx context.Context, connectionID int64, label string) (authURL, state string, err error) {
	if connectionID > 0 {
		// 重新授权前确认连接存在
		if _, err = s.connRepo.GetByID(ctx, connectionID); err != nil {
			return "", "", fmt.Errorf("连接不存在: %w", err)
		}
	}

	// 1. 生成 PKCE 安全参数
	verifier, err := utils.GenerateRandomString(32)
	if err != nil {
		return "", "", err
	}
	challenge := utils.GenerateCodeChallenge(verifier)
	state, err = utils.GenerateRandomString(16)
	if err != nil {
		return "", "", err
	}

	// 2. 缓存 verifier（key=state, value="verifier:connection_id:label"）
	utils.SetCache(state, fmt.Sprintf("%s:%d:%s", verifier, connectionID, label))

	// 3. 拼接授权 URL
	authURL = fmt.Sprintf(
		"%s?response_type=code&client_id=%s&redirect_uri=%s&scope=%s&state=%s&code_challenge=%s&code_challenge_method=S256",
		s.cfg.AuthURL, s.cfg.ClientID, url.QueryEscape(s.cfg.CallbackURL),
		url.QueryEscape(s.cfg.Scopes), state, challenge,
	)
	return authURL, state, nil
}

// HandleCallback 处理平台回调：code 换 token 并加密入库
func (s *ConnectService) HandleCallback(ctx context.Context, code, state string) (*model.Connection, error) {
	// 1. 校验 state 取缓存
	cachedVal, exists := utils.GetCache(state)
	if !exists {
		return nil, fmt.Errorf("授权超时或 state 无效，请重新发起")
	}
	utils.DeleteCache(state)

	// 2. 解析缓存 "verifier:connection_id:label"
	parts := strings.SplitN(cachedVal, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("缓存数据格式错误: %s", cachedVal)
	}
	verifier := parts[0]
	connectionID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("缓存中的连接 ID 无效: %v", err)
	}
	label := parts[2]

	// 3. code 换 token
	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		AccountID    string `json:"account_id"`
		Error        string `json:"error,omitempty"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "authorization_code",
			"client_id":     s.cfg.ClientID,
			"redirect_uri":  s.cfg.CallbackURL,
			"code":          code,
			"code_verifier": verifier,
		}).
		SetResult(&tokenResp).
		Post(s.cfg.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("换取 token 失败: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("平台拒绝 token 交换: status %d", resp.StatusCode())
	}

	// 4. 加密入库
	accessEnc, err := s.cipher.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("加密 access token 失败: %w", err)
	}
	refreshEnc, err := s.cipher.Encrypt(tokenResp.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("加密 refresh token 失败: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	if connectionID > 0 {
		// 既有连接重新授权：只重置凭证字段
		if err = s.connRepo.UpdateToken(ctx, connectionID, accessEnc, refreshEnc, expiresAt); err != nil {
			return nil, fmt.Errorf("连接凭证入库失败: %w", err)
		}
		return s.connRepo.GetByID(ctx, connectionID)
	}

	conn := &model.Connection{
		Label:             label,
		ProviderAccountID: tokenResp.AccountID,
		AccessToken:       accessEnc,
		RefreshToken:      refreshEnc,
		TokenExpiresAt:    expiresAt,
		Status:            model.ConnStatusActive,
	}
	if err = s.connRepo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("连接入库失败: %w", err)
	}
	return conn, nil
}

// Disconnect 用户主动解绑：连接软删，名下账户置为未绑定
func (s *ConnectService) Disconnect(ctx context.Context, connectionID int64) error {
	if _, err := s.connRepo.GetByID(ctx, connectionID); err != nil {
		return err
	}
	return s.connRepo.Delete(ctx, connectionID)
}
