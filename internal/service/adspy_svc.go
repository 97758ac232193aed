package service

import (
	"context"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/pkg/adspy"
)

// SpyClient 竞品广告抓取 sidecar 抽象（便于测试替换）
type SpyClient interface {
	Search(ctx context.Context, keyword, location string, numResults int) (*adspy.SearchResp, error)
	Health(ctx context.Context) error
}

// AdSpyService 竞品广告调研：代理调用抓取 sidecar
type AdSpyService struct {
	spy SpyClient
}

// NewAdSpyService 工厂方法
func NewAdSpyService(spy SpyClient) *AdSpyService {
	return &AdSpyService{spy: spy}
}

// Search 按关键词抓取竞价广告
func (s *AdSpyService) Search(ctx context.Context, req dto.AdSpySearchReq) (*dto.AdSpySearchResp, error) {
	resp, err := s.spy.Search(ctx, req.Keyword, req.Location, req.NumResults)
	if err != nil {
		return nil, err
	}

	ads := make([]dto.AdSpyAdResp, 0, len(resp.Ads))
	for _, ad := range resp.Ads {
		ads = append(ads, dto.AdSpyAdResp{
			Position:      ad.Position,
			BlockPosition: ad.BlockPosition,
			Title:         ad.Title,
			Link:          ad.Link,
			DisplayURL:    ad.DisplayURL,
			Description:   ad.Description,
			Sitelinks:     ad.Sitelinks,
			Source:        ad.Source,
		})
	}

	location := req.Location
	if location == "" {
		location = "us"
	}
	return &dto.AdSpySearchResp{
		Keyword:  resp.Keyword,
		Location: location,
		Count:    len(ads),
		Ads:      ads,
	}, nil
}

// Health 探活 sidecar
func (s *AdSpyService) Health(ctx context.Context) error {
	return s.spy.Health(ctx)
}
