package controller

import (
	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/service"
)

// ==================== Model -> DTO 转换 ====================

func toConnectionResp(conn *model.Connection) dto.ConnectionResp {
	return dto.ConnectionResp{
		ID:                conn.ID,
		Label:             conn.Label,
		ProviderAccountID: conn.ProviderAccountID,
		Status:            conn.Status,
		TokenExpiresAt:    conn.TokenExpiresAt,
		LastSyncAt:        conn.LastSyncAt,
		LastSyncError:     conn.LastSyncError,
		AccountCount:      len(conn.Accounts),
		CreatedAt:         conn.CreatedAt,
		UpdatedAt:         conn.UpdatedAt,
	}
}

func toConnectionList(conns []model.Connection, total int64) dto.ConnectionListResp {
	list := make([]dto.ConnectionResp, 0, len(conns))
	for i := range conns {
		list = append(list, toConnectionResp(&conns[i]))
	}
	return dto.ConnectionListResp{Total: total, List: list}
}

func toAccountResp(account *model.AdAccount) dto.AccountResp {
	resp := dto.AccountResp{
		ID:            account.ID,
		ExternalID:    account.ExternalID,
		Name:          account.Name,
		Region:        account.Region,
		HealthStatus:  account.HealthStatus,
		BillingStatus: account.BillingStatus,
		SpendTotal:    account.SpendTotal,
		AdCount:       account.AdCount,
		CampaignCount: account.CampaignCount,
		SyncStatus:    account.SyncStatus,
		LastSyncAt:    account.LastSyncAt,
		LastSyncError: account.LastSyncError,
		CreatedAt:     account.CreatedAt,
		UpdatedAt:     account.UpdatedAt,
		ConnectionID:  account.ConnectionID,
		IdentityID:    account.IdentityID,
	}
	if account.Connection != nil {
		resp.ConnectionLabel = account.Connection.Label
	}
	return resp
}

func toAccountList(accounts []model.AdAccount, total int64) dto.AccountListResp {
	list := make([]dto.AccountResp, 0, len(accounts))
	for i := range accounts {
		list = append(list, toAccountResp(&accounts[i]))
	}
	return dto.AccountListResp{Total: total, List: list}
}

func toSnapshotResp(snap *model.DailySnapshot) dto.SnapshotResp {
	return dto.SnapshotResp{
		ID:            snap.ID,
		AccountID:     snap.AccountID,
		SnapshotDate:  snap.SnapshotDate,
		SpendTotal:    snap.SpendTotal,
		AdCount:       snap.AdCount,
		CampaignCount: snap.CampaignCount,
		HealthStatus:  snap.HealthStatus,
		BillingStatus: snap.BillingStatus,
	}
}

func toFallbackResp(res *service.FallbackResult) dto.FallbackResp {
	return dto.FallbackResp{
		Data:        res.Data,
		FromCache:   res.FromCache,
		CacheAgeMs:  res.CacheAgeMs,
		CacheReason: res.CacheReason,
	}
}

func identityStatusText(status int) string {
	switch status {
	case model.IdentityStatusActive:
		return "可用"
	case model.IdentityStatusInactive:
		return "已停用"
	case model.IdentityStatusBurned:
		return "已废弃"
	default:
		return "未知"
	}
}

func toIdentityResp(identity *model.Identity) dto.IdentityResp {
	return dto.IdentityResp{
		ID:           identity.ID,
		Name:         identity.Name,
		FullName:     identity.FullName,
		Email:        identity.Email,
		Country:      identity.Country,
		ProfileID:    identity.ProfileID,
		UserAgent:    identity.UserAgent,
		ProxyURL:     identity.ProxyURL,
		Tags:         identity.Tags,
		Status:       identity.Status,
		StatusText:   identityStatusText(identity.Status),
		Note:         identity.Note,
		HasCookies:   identity.Cookies != "",
		AccountCount: len(identity.Accounts),
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}
}

func toRequestResp(req *model.OpsRequest) dto.RequestResp {
	resp := dto.RequestResp{
		ID:         req.ID,
		TraceID:    req.TraceID,
		Type:       req.Type,
		Title:      req.Title,
		Detail:     req.Detail,
		Status:     req.Status,
		Resolution: req.Resolution,
		AssigneeID: req.AssigneeID,
		AccountID:  req.AccountID,
		CreatedBy:  req.CreatedBy,
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  req.UpdatedAt,
	}
	if req.Assignee != nil {
		resp.AssigneeName = req.Assignee.DisplayName
	}
	return resp
}

func toMemberResp(member *model.TeamMember) dto.TeamMemberResp {
	return dto.TeamMemberResp{
		ID:          member.ID,
		Username:    member.Username,
		DisplayName: member.DisplayName,
		Email:       member.Email,
		Role:        member.Role,
		IsActive:    member.IsActive,
		Note:        member.Note,
		CreatedAt:   member.CreatedAt,
		UpdatedAt:   member.UpdatedAt,
	}
}

func toDomainResp(domain *model.Domain) dto.DomainResp {
	resp := dto.DomainResp{
		ID:         domain.ID,
		Hostname:   domain.Hostname,
		ZoneID:     domain.ZoneID,
		RecordID:   domain.RecordID,
		Target:     domain.Target,
		Status:     domain.Status,
		VerifiedAt: domain.VerifiedAt,
		AccountID:  domain.AccountID,
		CreatedAt:  domain.CreatedAt,
		UpdatedAt:  domain.UpdatedAt,
	}
	if domain.Account != nil {
		resp.AccountName = domain.Account.Name
	}
	return resp
}
