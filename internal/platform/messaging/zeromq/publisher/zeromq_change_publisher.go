package publisher

import (
	"context"
	"fmt"
	"net"
	"sync"

	"LogDB/internal/domain"
	"LogDB/internal/platform/config"
	"LogDB/internal/platform/messaging/zeromq/message"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ZeroMQChangePublisher broadcasts every durable mutation on a PUB socket as a
// two-frame message: topic, then the JSON ChangeMessage.
type ZeroMQChangePublisher struct {
	mu     sync.Mutex
	pub    zmq4.Socket
	logger log.Logger
}

func NewZeroMQChangePublisher(logger log.Logger) *ZeroMQChangePublisher {
	return &ZeroMQChangePublisher{
		pub:    zmq4.NewPub(context.Background()),
		logger: log.With(logger, "component", "change_publisher"),
	}
}

// NewChangePublisher returns a ZeroMQ publisher bound to the configured port,
// or a no-op publisher when the change feed is disabled.
func NewChangePublisher(cfg config.Config, logger log.Logger) (domain.ChangePublisher, error) {
	if cfg.ChangeFeedPort <= 0 {
		return domain.NewNopChangePublisher(), nil
	}
	p := NewZeroMQChangePublisher(logger)
	if err := p.Listen(cfg.ChangeFeedPort); err != nil {
		return nil, err
	}
	return p, nil
}

func (z *ZeroMQChangePublisher) Listen(port int) error {
	address := fmt.Sprintf("tcp://*:%d", port)
	if err := z.pub.Listen(address); err != nil {
		return errors.Wrapf(err, "start change publisher on %s", address)
	}
	level.Info(z.logger).Log("msg", "change publisher listening", "addr", address)
	return nil
}

func (z *ZeroMQChangePublisher) Addr() net.Addr {
	return z.pub.Addr()
}

func (z *ZeroMQChangePublisher) Publish(change domain.EntryChange) error {
	payload, err := json.Marshal(message.ChangeMessageFrom(change))
	if err != nil {
		return errors.Wrap(err, "marshal change message")
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	return z.pub.Send(zmq4.NewMsgFrom([]byte(message.ChangeTopic), payload))
}

func (z *ZeroMQChangePublisher) Close() error {
	return z.pub.Close()
}
