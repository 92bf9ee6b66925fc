package registry

import (
	"errors"
	"strconv"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard/conf"
)

var ErrConsulDisabled = errors.New("consul registration disabled")

// Registrar keeps one HTTP instance registered with the local Consul
// agent.
type Registrar struct {
	log    *zap.Logger
	client *api.Client
	reg    *api.AgentServiceRegistration
}

func NewRegistrar(name string, cfg conf.RegisterHTTP) (*Registrar, error) {
	if !cfg.Consul.Enabled {
		return nil, ErrConsulDisabled
	}

	config := api.DefaultConfig()
	if cfg.Consul.Address != "" {
		config.Address = cfg.Consul.Address
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	reg := Registration(name, cfg.Advertised())

	return &Registrar{
		log: zap.L().With(
			zap.String("registry", "consul"),
			zap.String("service_id", reg.ID),
		),
		client: client,
		reg:    reg,
	}, nil
}

// Registration describes instance to Consul. The service id is unique
// per host and port so replicas do not replace each other.
func Registration(name string, instance conf.Instance) *api.AgentServiceRegistration {
	reg := &api.AgentServiceRegistration{
		ID:      name + "-" + instance.Host + "-" + strconv.Itoa(instance.Port),
		Name:    name,
		Address: instance.Host,
		Port:    instance.Port,
		Tags:    []string{instance.Scheme},
		Meta: map[string]string{
			"url": instance.URL(),
		},
	}

	if instance.Health.Enabled {
		interval := instance.Health.Interval
		if interval == "" {
			interval = "10s"
		}

		reg.Check = &api.AgentServiceCheck{
			HTTP:                           instance.URL() + instance.Health.Path,
			Method:                         "GET",
			Interval:                       interval,
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	return reg
}

func (r *Registrar) Register() error {
	if err := r.client.Agent().ServiceRegister(r.reg); err != nil {
		return err
	}

	r.log.Info("service registered")
	return nil
}

func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.reg.ID); err != nil {
		return err
	}

	r.log.Info("service deregistered")
	return nil
}
