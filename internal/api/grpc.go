package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/quizladder/internal/errors"
	"github.com/victornm/quizladder/internal/game"
)

const gameServiceName = "quizladder.v1.GameService"

// GameServiceServer is the gRPC game service. Messages are google.protobuf.Struct values
// whose fields match the JSON bodies of the HTTP API.
type GameServiceServer interface {
	CreateRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollDice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectAnswer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAnswer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type gameMethod func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call gameMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(GameServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + gameServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GameServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var gameServiceDesc = grpc.ServiceDesc{
	ServiceName: gameServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateRoom", GameServiceServer.CreateRoom),
		unaryHandler("JoinRoom", GameServiceServer.JoinRoom),
		unaryHandler("StartGame", GameServiceServer.StartGame),
		unaryHandler("RollDice", GameServiceServer.RollDice),
		unaryHandler("SelectAnswer", GameServiceServer.SelectAnswer),
		unaryHandler("SubmitAnswer", GameServiceServer.SubmitAnswer),
		unaryHandler("EndGame", GameServiceServer.EndGame),
		unaryHandler("GetState", GameServiceServer.GetState),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quizladder/v1/game.proto",
}

func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&gameServiceDesc, srv)
}

// GameServiceClient calls the game service over a client connection.
type GameServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGameServiceClient(cc grpc.ClientConnInterface) *GameServiceClient {
	return &GameServiceClient{cc: cc}
}

// Call invokes method with req encoded as a Struct.
func (c *GameServiceClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithCause(err), errors.WithMessagef("encode request: %v", err))
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+gameServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}

	return out.AsMap(), nil
}

type roomRequest struct {
	Code   string `json:"code"`
	Player string `json:"player"`
	Color  string `json:"color"`
	Answer string `json:"answer"`
	MaxBox int    `json:"maxbox"`
	Topic  string `json:"topic"`
}

func decodeRoomRequest(in *structpb.Struct) (roomRequest, error) {
	var r roomRequest
	if err := fromStruct(in, &r); err != nil {
		return r, errors.Of(errors.ReasonInvalidInput, "request is not valid: %v", err)
	}

	return r, nil
}

func (a *API) CreateRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.CreateRoom(ctx, game.CreateRoomRequest{Player: r.Player, Color: r.Color, MaxBox: r.MaxBox, Topic: r.Topic})
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) JoinRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.JoinRoom(ctx, game.JoinRoomRequest{Code: r.Code, Player: r.Player, Color: r.Color})
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) StartGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.StartGame(ctx, r.Code)
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) RollDice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.RollDice(ctx, game.RollDiceRequest{Code: r.Code, Player: r.Player})
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) SelectAnswer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.SelectAnswer(ctx, game.SelectAnswerRequest{Code: r.Code, Player: r.Player, Answer: r.Answer})
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) SubmitAnswer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.AnswerQuestion(ctx, game.AnswerQuestionRequest{Code: r.Code, Player: r.Player, Answer: r.Answer})
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) EndGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.EndGame(ctx, r.Code)
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}

func (a *API) GetState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := decodeRoomRequest(in)
	if err != nil {
		return nil, err
	}

	res, err := a.gs.QueryState(ctx, r.Code)
	if err != nil {
		return nil, err
	}

	return toStruct(res)
}
