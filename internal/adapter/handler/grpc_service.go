package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/service"
)

// JSONCodecName is the content-subtype clients must select with
// grpc.CallContentSubtype to talk to ItemService.
const JSONCodecName = "json"

const itemServiceName = "formalin.v1.ItemService"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return JSONCodecName }

type ListItemsRequest struct{}

type ListItemsResponse struct {
	Items []domain.ItemWithHistory `json:"items"`
}

type CreateItemRequest struct {
	domain.ItemPatch
	service.AuditInput
	RequestID string `json:"requestId,omitempty"`
}

type CreateItemResponse struct {
	ID int64 `json:"id"`
}

type UpdateItemRequest struct {
	ID int64 `json:"id"`
	domain.ItemPatch
	service.AuditInput
}

type UpdateItemResponse struct{}

type DeleteItemRequest struct {
	ID int64 `json:"id"`
}

type DeleteItemResponse struct{}

type ItemServiceServer interface {
	ListItems(context.Context, *ListItemsRequest) (*ListItemsResponse, error)
	CreateItem(context.Context, *CreateItemRequest) (*CreateItemResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*UpdateItemResponse, error)
	DeleteItem(context.Context, *DeleteItemRequest) (*DeleteItemResponse, error)
}

type UnimplementedItemServiceServer struct{}

func (UnimplementedItemServiceServer) ListItems(context.Context, *ListItemsRequest) (*ListItemsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListItems not implemented")
}

func (UnimplementedItemServiceServer) CreateItem(context.Context, *CreateItemRequest) (*CreateItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateItem not implemented")
}

func (UnimplementedItemServiceServer) UpdateItem(context.Context, *UpdateItemRequest) (*UpdateItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}

func (UnimplementedItemServiceServer) DeleteItem(context.Context, *DeleteItemRequest) (*DeleteItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteItem not implemented")
}

var ItemServiceDesc = grpc.ServiceDesc{
	ServiceName: itemServiceName,
	HandlerType: (*ItemServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListItems", Handler: unaryHandler("ListItems", ItemServiceServer.ListItems)},
		{MethodName: "CreateItem", Handler: unaryHandler("CreateItem", ItemServiceServer.CreateItem)},
		{MethodName: "UpdateItem", Handler: unaryHandler("UpdateItem", ItemServiceServer.UpdateItem)},
		{MethodName: "DeleteItem", Handler: unaryHandler("DeleteItem", ItemServiceServer.DeleteItem)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterItemServiceServer(s grpc.ServiceRegistrar, srv ItemServiceServer) {
	s.RegisterService(&ItemServiceDesc, srv)
}

// unaryHandler adapts a typed ItemServiceServer method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](method string, call func(ItemServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + itemServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ItemServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ItemServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ItemServiceClient calls ItemService over a connection using the JSON codec.
type ItemServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewItemServiceClient(cc grpc.ClientConnInterface) *ItemServiceClient {
	return &ItemServiceClient{cc: cc}
}

func (c *ItemServiceClient) ListItems(ctx context.Context, in *ListItemsRequest, opts ...grpc.CallOption) (*ListItemsResponse, error) {
	out := new(ListItemsResponse)
	if err := c.invoke(ctx, "ListItems", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ItemServiceClient) CreateItem(ctx context.Context, in *CreateItemRequest, opts ...grpc.CallOption) (*CreateItemResponse, error) {
	out := new(CreateItemResponse)
	if err := c.invoke(ctx, "CreateItem", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ItemServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*UpdateItemResponse, error) {
	out := new(UpdateItemResponse)
	if err := c.invoke(ctx, "UpdateItem", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ItemServiceClient) DeleteItem(ctx context.Context, in *DeleteItemRequest, opts ...grpc.CallOption) (*DeleteItemResponse, error) {
	out := new(DeleteItemResponse)
	if err := c.invoke(ctx, "DeleteItem", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ItemServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+itemServiceName+"/"+method, in, out, opts...)
}
