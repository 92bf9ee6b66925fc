package nats

import (
	"os"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/pubsub"
)

type natsTestSuite struct {
	suite.Suite
	url    string
	pubSub pubsub.PubSub
}

func (suite *natsTestSuite) SetupSuite() {
	url, ok := os.LookupEnv("NATS_URL")
	if !ok {
		suite.T().Skip("NATS_URL not set")
		return
	}

	cfg := conf.EventBus{
		Enabled:  true,
		Provider: conf.NATS,
		URL:      url,
		Tasks: conf.Stream{
			Name: "TASKS_TEST",
		},
	}

	pubSub, err := NewPubSub(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.url = url
	suite.pubSub = pubSub
}

func (suite *natsTestSuite) TestPublishLandsInStream() {
	nc, err := nats.Connect(suite.url)
	suite.Require().NoError(err)
	defer nc.Close()

	js, err := nc.JetStream()
	suite.Require().NoError(err)

	err = suite.pubSub.Publish("tasks.ws.task.created", []byte("hello"))
	suite.Require().NoError(err)

	msg, err := js.GetLastMsg("TASKS_TEST", "tasks.ws.task.created")
	suite.Require().NoError(err)
	suite.Equal("hello", string(msg.Data))
}

func (suite *natsTestSuite) TearDownSuite() {
	if suite.pubSub != nil {
		suite.pubSub.Close()
	}
}

func TestNatsTestSuite(t *testing.T) {
	suite.Run(t, new(natsTestSuite))
}
