package listener

import (
	"context"
	"time"

	"LogDB/internal/domain"
	"LogDB/internal/platform/messaging/zeromq/message"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ZeromqChangeListener subscribes to a server's change feed.
type ZeromqChangeListener struct {
	sub     zmq4.Socket
	address string
	logger  log.Logger
}

func NewZeromqChangeListener(ctx context.Context, address string, logger log.Logger) *ZeromqChangeListener {
	reconnectOpt := zmq4.WithAutomaticReconnect(true)
	retryOpt := zmq4.WithDialerRetry(time.Second * 5)
	return &ZeromqChangeListener{
		sub:     zmq4.NewSub(ctx, reconnectOpt, retryOpt),
		address: address,
		logger:  log.With(logger, "component", "change_listener", "addr", address),
	}
}

// Listen dials the feed and calls handle for every change until ctx is done
// or the socket is closed.
func (z *ZeromqChangeListener) Listen(ctx context.Context, handle func(domain.EntryChange)) error {
	if err := z.sub.SetOption(zmq4.OptionSubscribe, message.ChangeTopic); err != nil {
		return errors.Wrap(err, "subscribe to change topic")
	}
	if err := z.sub.Dial(z.address); err != nil {
		return errors.Wrapf(err, "dial %s", z.address)
	}
	level.Info(z.logger).Log("msg", "listening for changes")

	for {
		msg, err := z.sub.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, zmq4.ErrClosedConn) {
				return nil
			}
			level.Warn(z.logger).Log("msg", "error receiving change", "err", err)
			continue
		}
		change, err := DecodeChange(msg)
		if err != nil {
			level.Warn(z.logger).Log("msg", "dropping malformed change", "err", err)
			continue
		}
		handle(change)
	}
}

func (z *ZeromqChangeListener) Close() error {
	return z.sub.Close()
}

// DecodeChange parses a two-frame change feed message.
func DecodeChange(msg zmq4.Msg) (domain.EntryChange, error) {
	if len(msg.Frames) != 2 {
		return domain.EntryChange{}, errors.Errorf("expected 2 frames, got %d", len(msg.Frames))
	}
	if topic := string(msg.Frames[0]); topic != message.ChangeTopic {
		return domain.EntryChange{}, errors.Errorf("unexpected topic %q", topic)
	}
	var m message.ChangeMessage
	if err := json.Unmarshal(msg.Frames[1], &m); err != nil {
		return domain.EntryChange{}, errors.Wrap(err, "error unmarshalling change message")
	}
	return m.ToEntryChange(), nil
}
