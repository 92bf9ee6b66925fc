package nats

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/pubsub"
)

// DefaultStreamSubjects is bound to a stream declared without a config.
var DefaultStreamSubjects = []string{"tasks.>"}

func NewPubSub(cfg conf.EventBus) (pubsub.PubSub, error) {
	log := zap.L().With(
		zap.String("pubsub", "nats"),
	)

	url := cfg.URL
	if url == "" {
		if u, ok := os.LookupEnv("NATS_URL"); ok {
			url = u
		} else {
			url = nats.DefaultURL
		}
	}

	nc, err := nats.Connect(url,
		nats.Name("taskboard"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn(err.Error(), zap.String("action", "disconnect"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	ps := &pubSub{
		log: log,
		nc:  nc,
		js:  js,
	}

	if stream := cfg.Tasks; stream.Name != "" {
		if err := ps.AddStream(stream.Name, stream.Config); err != nil {
			ps.Close()
			return nil, err
		}
	}

	log.Info("connected", zap.String("url", url))
	return ps, nil
}

type pubSub struct {
	log *zap.Logger
	nc  *nats.Conn
	js  nats.JetStreamContext
}

func (ps *pubSub) Publish(topic string, data []byte) error {
	_, err := ps.js.Publish(topic, data)
	return err
}

// AddStream declares the stream, updating it when it already exists
// with another config.
func (ps *pubSub) AddStream(name string, raw json.RawMessage) error {
	cfg := &nats.StreamConfig{
		Subjects: DefaultStreamSubjects,
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return err
		}
	}
	cfg.Name = name

	_, err := ps.js.AddStream(cfg)
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		_, err = ps.js.UpdateStream(cfg)
	}

	return err
}

func (ps *pubSub) Close() error {
	return ps.nc.Drain()
}
