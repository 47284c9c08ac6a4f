package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/adapters"
	"jobmate/harvester-service/internal/model"
)

func TestNewRegistry_PlatformNames(t *testing.T) {
	reg := adapters.NewRegistry()
	assert.Equal(t, []string{"jsonfeed", "recruitee", "workday"}, reg.Kinds())

	cases := []struct {
		cfg  model.RunConfig
		want string
	}{
		{model.RunConfig{SourceURL: "https://acme.wd1.myworkdayjobs.com/en-US/Careers"}, "Workday-acme"},
		{model.RunConfig{Adapter: "recruitee", SourceURL: "https://globex.recruitee.com/"}, "Recruitee-globex"},
		{model.RunConfig{Adapter: "jsonfeed", SourceURL: "https://www.initech.com/jobs.json"}, "Feed-initech"},
		{model.RunConfig{Adapter: "jsonfeed", Name: "Initech", SourceURL: "https://www.initech.com/jobs.json"}, "Initech"},
	}
	for _, c := range cases {
		got, err := reg.Platform(c.cfg)
		require.NoError(t, err, c.cfg.SourceURL)
		assert.Equal(t, c.want, got)
	}
}
