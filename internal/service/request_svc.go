package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
)

// RequestService 运营工单流转
// 状态机：open -> approved/rejected，approved -> done
type RequestService struct {
	requestRepo repository.RequestRepository
	accountRepo repository.AdAccountRepository
}

// NewRequestService 工厂方法
func NewRequestService(requestRepo repository.RequestRepository, accountRepo repository.AdAccountRepository) *RequestService {
	return &RequestService{requestRepo: requestRepo, accountRepo: accountRepo}
}

// CreateRequest 提交工单，生成外部可引用的 trace_id
func (s *RequestService) CreateRequest(ctx context.Context, req dto.RequestCreateReq, operator string) (*model.OpsRequest, error) {
	if req.AccountID != nil {
		if _, err := s.accountRepo.GetByID(ctx, *req.AccountID); err != nil {
			return nil, fmt.Errorf("关联账户不存在: %w", err)
		}
	}

	request := &model.OpsRequest{
		TraceID:   uuid.NewString(),
		Type:      req.Type,
		Title:     req.Title,
		Detail:    req.Detail,
		Status:    model.RequestStatusOpen,
		AccountID: req.AccountID,
	}
	request.CreatedBy = operator
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRequest 按 ID 查询工单
func (s *RequestService) GetRequest(ctx context.Context, id int64) (*model.OpsRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// GetRequestByTraceID 按 trace_id 查询工单
func (s *RequestService) GetRequestByTraceID(ctx context.Context, traceID string) (*model.OpsRequest, error) {
	return s.requestRepo.GetByTraceID(ctx, traceID)
}

// ListRequests 分页查询工单
func (s *RequestService) ListRequests(ctx context.Context, req dto.RequestListReq) ([]model.OpsRequest, int64, error) {
	return s.requestRepo.List(ctx, repository.RequestFilter{
		Type:       req.Type,
		Status:     req.Status,
		AssigneeID: req.AssigneeID,
		AccountID:  req.AccountID,
		Keyword:    req.Keyword,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
}

// UpdateRequest 更新工单内容/指派
func (s *RequestService) UpdateRequest(ctx context.Context, id int64, req dto.RequestUpdateReq, operator string) (*model.OpsRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestStatusOpen {
		return nil, fmt.Errorf("工单已进入 %s 状态，不可修改", request.Status)
	}

	if req.Title != "" {
		request.Title = req.Title
	}
	if req.Detail != "" {
		request.Detail = req.Detail
	}
	if req.AssigneeID != nil {
		request.AssigneeID = req.AssigneeID
	}
	request.UpdatedBy = operator
	if err = s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, id)
}

// ResolveRequest 流转工单状态（审批/驳回/完结）
func (s *RequestService) ResolveRequest(ctx context.Context, id int64, req dto.RequestResolveReq, operator string) (*model.OpsRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(request.Status, req.Status) {
		return nil, fmt.Errorf("工单不能从 %s 流转到 %s", request.Status, req.Status)
	}

	if err = s.requestRepo.UpdateStatus(ctx, id, req.Status, req.Resolution, operator); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, id)
}

// Stats 工单状态看板统计
func (s *RequestService) Stats(ctx context.Context) (*dto.RequestStatsResp, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.RequestStatsResp{
		Open:     counts[model.RequestStatusOpen],
		Approved: counts[model.RequestStatusApproved],
		Rejected: counts[model.RequestStatusRejected],
		Done:     counts[model.RequestStatusDone],
	}, nil
}

func validTransition(from, to string) bool {
	switch from {
	case model.RequestStatusOpen:
		return to == model.RequestStatusApproved || to == model.RequestStatusRejected
	case model.RequestStatusApproved:
		return to == model.RequestStatusDone
	default:
		return false
	}
}
