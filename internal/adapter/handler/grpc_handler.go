package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/service"
)

type GRPCHandler struct {
	UnimplementedItemServiceServer
	itemService *service.ItemService
	logger      *zap.Logger
}

func NewGRPCHandler(itemService *service.ItemService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{itemService: itemService, logger: logger}
}

func (h *GRPCHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	items, err := h.itemService.List(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &ListItemsResponse{Items: items}, nil
}

func (h *GRPCHandler) CreateItem(ctx context.Context, req *CreateItemRequest) (*CreateItemResponse, error) {
	id, err := h.itemService.Create(ctx, service.CreateItemInput{
		ItemPatch:      req.ItemPatch,
		AuditInput:     req.AuditInput,
		IdempotencyKey: req.RequestID,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &CreateItemResponse{ID: id}, nil
}

func (h *GRPCHandler) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*UpdateItemResponse, error) {
	err := h.itemService.Update(ctx, req.ID, service.UpdateItemInput{
		ItemPatch:  req.ItemPatch,
		AuditInput: req.AuditInput,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &UpdateItemResponse{}, nil
}

func (h *GRPCHandler) DeleteItem(ctx context.Context, req *DeleteItemRequest) (*DeleteItemResponse, error) {
	if err := h.itemService.Delete(ctx, req.ID); err != nil {
		return nil, h.toStatus(err)
	}
	return &DeleteItemResponse{}, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidTimestamp):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "item not found")
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, "duplicate request")
	default:
		h.logger.Error("grpc request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
