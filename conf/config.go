package conf

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	Path string
	Port int
)

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.taskboard"
	}

	Path = path
	Port = cli.Int("port")
	return nil
}

func LoadConfig() (*Config, error) {
	f, err := os.Open(Path + "/config.yaml")
	if err != nil {
		f, err = os.Open(Path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r := NewEnvExpandedReader(f)

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	Name        string      `yaml:"name"`
	BaseURL     string      `yaml:"baseUrl"`
	Log         Log         `yaml:"log"`
	JWT         JWT         `yaml:"jwt"`
	Engine      Engine      `yaml:"engine"`
	Transports  Transports  `yaml:"transports"`
	Persistence Persistence `yaml:"persistence"`
	EventBus    EventBus    `yaml:"eventBus"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type JWT struct {
	Secret  []byte
	Timeout time.Duration
}

func (cfg *JWT) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Secret  string
		Timeout string
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	cfg.Secret = []byte(raw.Secret)

	if raw.Timeout == "" {
		cfg.Timeout = 1 * time.Hour
	} else {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}

		cfg.Timeout = timeout
	}

	return nil
}

// Engine tunes the lifecycle engine. Timeout bounds every unit of work
// against the store; MaxAttempts bounds conflict retries, which back off
// exponentially from RetryInterval.
type Engine struct {
	Timeout       time.Duration
	MaxAttempts   int
	RetryInterval time.Duration
}

func DefaultEngine() Engine {
	return Engine{
		Timeout:       5 * time.Second,
		MaxAttempts:   3,
		RetryInterval: 5 * time.Millisecond,
	}
}

func (e *Engine) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timeout       string `yaml:"timeout"`
		MaxAttempts   int    `yaml:"maxAttempts"`
		RetryInterval string `yaml:"retryInterval"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*e = DefaultEngine()

	if raw.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}

		e.Timeout = timeout
	}

	if raw.MaxAttempts > 0 {
		e.MaxAttempts = raw.MaxAttempts
	}

	if raw.RetryInterval != "" {
		interval, err := time.ParseDuration(raw.RetryInterval)
		if err != nil {
			return err
		}

		e.RetryInterval = interval
	}

	return nil
}

type Transports struct {
	HTTP RegisterHTTP `yaml:"http"`
}

type RegisterHTTP struct {
	Enabled  bool
	Internal Instance
	External *Instance
	Consul   Consul
}

func (r *RegisterHTTP) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool      `yaml:"enabled"`
		Internal Instance  `yaml:"internal"`
		External *Instance `yaml:"external"`
		Consul   Consul    `yaml:"consul"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Enabled = raw.Enabled
	r.Internal = raw.Internal
	r.External = raw.External
	r.Consul = raw.Consul

	// default
	if r.Internal.Scheme == "" {
		r.Internal.Scheme = "http"
	}

	if r.Internal.Host == "" {
		r.Internal.Host = "localhost"
	}

	if r.Internal.Port == 0 {
		r.Internal.Port = Port
	}

	if r.Internal.Health.Path == "" {
		r.Internal.Health.Path = "/health"
	}

	return nil
}

// Advertised is the instance other services should reach.
func (r *RegisterHTTP) Advertised() Instance {
	if r.External != nil {
		return *r.External
	}

	return r.Internal
}

type Instance struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Health Health `yaml:"health"`
}

func (i *Instance) URL() string {
	return i.Scheme + "://" + i.Host + ":" + strconv.Itoa(i.Port)
}

type Health struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	Interval string `yaml:"interval"`
}

type Consul struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type PersistenceDriver int

const (
	SQLite PersistenceDriver = iota
	BadgerDB
	InMem
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch driver {
	case "sqlite":
		return SQLite, nil
	case "badger":
		return BadgerDB, nil
	case "inmem":
		return InMem, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case SQLite:
		return "sqlite"
	case BadgerDB:
		return "badger"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

type Persistence struct {
	Driver PersistenceDriver
	Name   string
	Host   string
	InMem  bool
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver string `yaml:"driver"`
		Name   string `yaml:"name"`
		Host   string `yaml:"host"`
		InMem  bool   `yaml:"inmem"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver
	p.Name = raw.Name
	if p.Name == "" {
		p.Name = "taskboard"
	}

	p.Host = raw.Host
	if raw.Host == "" {
		p.Host = Path
	}

	p.InMem = raw.InMem || driver == InMem

	return nil
}

type TransportProvider int

const NATS TransportProvider = iota

func ParseTransportProvider(provider string) (TransportProvider, error) {
	switch provider {
	case "nats":
		return NATS, nil
	default:
		return -1, errors.New("provider not supported")
	}
}

func (p TransportProvider) String() string {
	switch p {
	case NATS:
		return "nats"
	default:
		return ""
	}
}

type EventBus struct {
	Enabled  bool
	Provider TransportProvider
	URL      string
	Tasks    Stream
}

func (e *EventBus) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool   `yaml:"enabled"`
		Provider string `yaml:"provider"`
		URL      string `yaml:"url"`
		Tasks    Stream `yaml:"tasks"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	e.Enabled = raw.Enabled
	e.URL = raw.URL
	e.Tasks = raw.Tasks

	if !raw.Enabled && raw.Provider == "" {
		return nil
	}

	provider, err := ParseTransportProvider(raw.Provider)
	if err != nil {
		return err
	}

	e.Provider = provider
	return nil
}

type Stream struct {
	Name   string
	Config json.RawMessage
}

func (s *Stream) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name   string
		Config string
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Name = raw.Name
	if raw.Config != "" {
		s.Config = json.RawMessage(raw.Config)
	}

	return nil
}
