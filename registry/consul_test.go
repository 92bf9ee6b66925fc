package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirror520/taskboard/conf"
)

func TestRegistration(t *testing.T) {
	assert := assert.New(t)

	reg := Registration("taskboard", conf.Instance{
		Scheme: "http",
		Host:   "10.0.0.5",
		Port:   8080,
		Health: conf.Health{
			Enabled: true,
			Path:    "/health",
		},
	})

	assert.Equal("taskboard-10.0.0.5-8080", reg.ID)
	assert.Equal("taskboard", reg.Name)
	assert.Equal("10.0.0.5", reg.Address)
	assert.Equal(8080, reg.Port)
	assert.Equal("http://10.0.0.5:8080", reg.Meta["url"])

	if assert.NotNil(reg.Check) {
		assert.Equal("http://10.0.0.5:8080/health", reg.Check.HTTP)
		assert.Equal("10s", reg.Check.Interval)
	}
}

func TestRegistrationWithoutHealthCheck(t *testing.T) {
	reg := Registration("taskboard", conf.Instance{
		Scheme: "http",
		Host:   "localhost",
		Port:   8080,
	})

	assert.Nil(t, reg.Check)
}

func TestConsulDisabled(t *testing.T) {
	_, err := NewRegistrar("taskboard", conf.RegisterHTTP{})
	assert.ErrorIs(t, err, ErrConsulDisabled)
}
