package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
)

func setupRequestTestSvc(t *testing.T) *RequestService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.OpsRequest{}, &model.TeamMember{}, &model.AdAccount{}, &model.Connection{}, &model.Identity{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return NewRequestService(repository.NewRequestRepository(db), repository.NewAdAccountRepository(db))
}

func TestRequestService_CreateRequest(t *testing.T) {
	svc := setupRequestTestSvc(t)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, dto.RequestCreateReq{
		Type:  model.RequestTypeTopUp,
		Title: "账户 A 充值 $500",
	}, "alice")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	if req.TraceID == "" {
		t.Error("TraceID 不应为空")
	}
	if req.Status != model.RequestStatusOpen {
		t.Errorf("Status = %s, want open", req.Status)
	}
	if req.CreatedBy != "alice" {
		t.Errorf("CreatedBy = %s, want alice", req.CreatedBy)
	}

	// trace_id 可反查
	found, err := svc.GetRequestByTraceID(ctx, req.TraceID)
	if err != nil {
		t.Fatalf("GetRequestByTraceID() error = %v", err)
	}
	if found.ID != req.ID {
		t.Errorf("反查到的工单 ID = %d, want %d", found.ID, req.ID)
	}
}

func TestRequestService_CreateRequest_UnknownAccount(t *testing.T) {
	svc := setupRequestTestSvc(t)

	missing := int64(999)
	_, err := svc.CreateRequest(context.Background(), dto.RequestCreateReq{
		Type:      model.RequestTypeTopUp,
		Title:     "不存在的账户",
		AccountID: &missing,
	}, "alice")
	if err == nil {
		t.Fatal("关联不存在的账户应报错")
	}
}

func TestRequestService_ResolveRequest_Transitions(t *testing.T) {
	cases := []struct {
		name    string
		path    []string // 依次执行的状态流转
		wantErr bool
	}{
		{"open 审批通过", []string{model.RequestStatusApproved}, false},
		{"open 驳回", []string{model.RequestStatusRejected}, false},
		{"审批后完结", []string{model.RequestStatusApproved, model.RequestStatusDone}, false},
		{"open 直接完结", []string{model.RequestStatusDone}, true},
		{"驳回后不能完结", []string{model.RequestStatusRejected, model.RequestStatusDone}, true},
		{"完结后不能再流转", []string{model.RequestStatusApproved, model.RequestStatusDone, model.RequestStatusApproved}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := setupRequestTestSvc(t)
			ctx := context.Background()

			req, err := svc.CreateRequest(ctx, dto.RequestCreateReq{
				Type:  model.RequestTypeNewAccount,
				Title: "新账户申请",
			}, "alice")
			if err != nil {
				t.Fatalf("CreateRequest() error = %v", err)
			}

			var lastErr error
			for _, status := range tc.path {
				_, lastErr = svc.ResolveRequest(ctx, req.ID, dto.RequestResolveReq{
					Status:     status,
					Resolution: "处理意见",
				}, "bob")
				if lastErr != nil {
					break
				}
			}

			if tc.wantErr && lastErr == nil {
				t.Error("期望流转失败，但成功了")
			}
			if !tc.wantErr && lastErr != nil {
				t.Errorf("流转失败: %v", lastErr)
			}
		})
	}
}

func TestRequestService_ResolveRequest_RecordsOperator(t *testing.T) {
	svc := setupRequestTestSvc(t)
	ctx := context.Background()

	req, _ := svc.CreateRequest(ctx, dto.RequestCreateReq{
		Type:  model.RequestTypeDomain,
		Title: "换落地页域名",
	}, "alice")

	resolved, err := svc.ResolveRequest(ctx, req.ID, dto.RequestResolveReq{
		Status:     model.RequestStatusApproved,
		Resolution: "同意，走 DNS 变更流程",
	}, "bob")
	if err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}

	if resolved.Status != model.RequestStatusApproved {
		t.Errorf("Status = %s, want approved", resolved.Status)
	}
	if resolved.Resolution != "同意，走 DNS 变更流程" {
		t.Errorf("Resolution = %q", resolved.Resolution)
	}
	if resolved.UpdatedBy != "bob" {
		t.Errorf("UpdatedBy = %s, want bob", resolved.UpdatedBy)
	}
}

func TestRequestService_UpdateRequest_OnlyWhenOpen(t *testing.T) {
	svc := setupRequestTestSvc(t)
	ctx := context.Background()

	req, _ := svc.CreateRequest(ctx, dto.RequestCreateReq{
		Type:  model.RequestTypeOther,
		Title: "原标题",
	}, "alice")

	// open 状态可以改
	updated, err := svc.UpdateRequest(ctx, req.ID, dto.RequestUpdateReq{Title: "新标题"}, "alice")
	if err != nil {
		t.Fatalf("UpdateRequest() error = %v", err)
	}
	if updated.Title != "新标题" {
		t.Errorf("Title = %s, want 新标题", updated.Title)
	}

	// 流转后不可再改
	if _, err = svc.ResolveRequest(ctx, req.ID, dto.RequestResolveReq{Status: model.RequestStatusRejected}, "bob"); err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}
	if _, err = svc.UpdateRequest(ctx, req.ID, dto.RequestUpdateReq{Title: "再改一次"}, "alice"); err == nil {
		t.Error("非 open 状态的工单不应允许修改")
	}
}

func TestRequestService_Stats(t *testing.T) {
	svc := setupRequestTestSvc(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateRequest(ctx, dto.RequestCreateReq{
			Type:  model.RequestTypeTopUp,
			Title: "充值",
		}, "alice"); err != nil {
			t.Fatalf("CreateRequest() error = %v", err)
		}
	}
	req, _ := svc.CreateRequest(ctx, dto.RequestCreateReq{Type: model.RequestTypeOther, Title: "其他"}, "alice")
	if _, err := svc.ResolveRequest(ctx, req.ID, dto.RequestResolveReq{Status: model.RequestStatusApproved}, "bob"); err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Open != 3 || stats.Approved != 1 {
		t.Errorf("stats = %+v, want Open=3 Approved=1", stats)
	}
}
