package zmq

import (
	"context"
	"fmt"
	"net"

	"LogDB/internal/application/service"
	"LogDB/internal/domain"
	"LogDB/internal/platform/config"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	SAVE   = "SAVE"
	GET    = "GET"
	DELETE = "DELETE"
)

// ZmqApi answers ApiRequests on a REP socket, one request at a time.
type ZmqApi struct {
	socket   zmq4.Socket
	config   config.Config
	services *Services
	logger   log.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	listening bool
}

type Services struct {
	get    *service.GetEntryService
	set    *service.SaveEntryService
	delete *service.DeleteEntryService
}

func NewZmqApi(get *service.GetEntryService, set *service.SaveEntryService,
	delete *service.DeleteEntryService, conf config.Config, logger log.Logger) *ZmqApi {
	ctx, cancel := context.WithCancel(context.Background())
	return &ZmqApi{
		socket: zmq4.NewRep(ctx),
		config: conf,
		services: &Services{
			get:    get,
			set:    set,
			delete: delete,
		},
		logger: log.With(logger, "component", "zmq_api"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (z *ZmqApi) Enabled() bool {
	return z.config.ZmqApiPort > 0
}

// Listen binds the socket and serves requests in the background.
func (z *ZmqApi) Listen() error {
	address := fmt.Sprintf("tcp://*:%d", z.config.ZmqApiPort)
	if err := z.socket.Listen(address); err != nil {
		return errors.Wrapf(err, "listen on %s", address)
	}
	level.Info(z.logger).Log("msg", "zmq api listening", "addr", address)
	z.listening = true
	go z.serve()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (z *ZmqApi) Addr() net.Addr {
	return z.socket.Addr()
}

func (z *ZmqApi) serve() {
	defer close(z.done)
	for {
		msg, err := z.socket.Recv()
		if err != nil {
			if z.ctx.Err() != nil || errors.Is(err, zmq4.ErrClosedConn) {
				return
			}
			level.Warn(z.logger).Log("msg", "recv error", "err", err)
			continue
		}

		response := z.Handle(msg.Bytes())
		if err := z.socket.Send(z.marshal(response)); err != nil {
			level.Warn(z.logger).Log("msg", "send error", "err", err)
		}
	}
}

// Handle decodes one request payload and executes it.
func (z *ZmqApi) Handle(payload []byte) ApiResponse {
	var req ApiRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return ApiResponse{Success: false, Error: "invalid request: " + err.Error()}
	}
	return z.processRequest(&req)
}

func (z *ZmqApi) processRequest(req *ApiRequest) ApiResponse {
	switch req.Action {
	case SAVE:
		result := z.services.set.Execute(service.SaveEntryCommand{
			Key:   req.Key,
			Value: req.Value,
		})
		return toResponse(result.Entry, result.Err == nil, result.Err)

	case GET:
		result := z.services.get.Execute(service.GetEntryQuery{Key: req.Key})
		err := result.Err
		if err == nil && !result.Found {
			err = domain.ErrKeyNotFound
		}
		return toResponse(result.Entry, result.Found, err)

	case DELETE:
		result := z.services.delete.Execute(service.DeleteEntryCommand{Key: req.Key})
		return toResponse(result.Entry, result.Err == nil, result.Err)

	default:
		level.Warn(z.logger).Log("msg", "unknown action", "action", req.Action)
		return ApiResponse{Success: false, Error: fmt.Sprintf("unknown action %q", req.Action)}
	}
}

func toResponse(entry domain.DbEntry, success bool, err error) ApiResponse {
	response := ApiResponse{
		Entry: EntryResponse{
			Key:       entry.Key(),
			Value:     entry.Value(),
			Tombstone: entry.Tombstone(),
		},
		Success: success,
	}
	if err != nil {
		response.Error = err.Error()
	}
	return response
}

func (z *ZmqApi) marshal(response ApiResponse) zmq4.Msg {
	payload, err := json.Marshal(response)
	if err != nil {
		level.Error(z.logger).Log("msg", "error marshalling response", "err", err)
		payload = []byte(`{"success":false}`)
	}
	return zmq4.NewMsg(payload)
}

func (z *ZmqApi) Close() error {
	z.cancel()
	err := z.socket.Close()
	if z.listening {
		<-z.done
	}
	level.Info(z.logger).Log("msg", "zmq api shut down")
	return err
}
