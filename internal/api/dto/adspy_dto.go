package dto

// ================== AdSpy DTO ==================

// AdSpySearchReq 竞品广告抓取请求
type AdSpySearchReq struct {
	Keyword    string `json:"keyword" binding:"required,max=200"`
	Location   string `json:"location" binding:"max=10"`
	NumResults int    `json:"num_results" binding:"gte=0,lte=50"`
}

// AdSpyAdResp 单条竞价广告
type AdSpyAdResp struct {
	Position      int      `json:"position"`
	BlockPosition string   `json:"block_position"`
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	DisplayURL    string   `json:"display_url"`
	Description   string   `json:"description"`
	Sitelinks     []string `json:"sitelinks"`
	Source        string   `json:"source"`
}

// AdSpySearchResp 竞品广告抓取结果
type AdSpySearchResp struct {
	Keyword  string        `json:"keyword"`
	Location string        `json:"location"`
	Count    int           `json:"count"`
	Ads      []AdSpyAdResp `json:"ads"`
}
