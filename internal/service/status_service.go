package service

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/andresuchdata/ecsync/internal/repository"
	"github.com/andresuchdata/ecsync/internal/sink"
	"github.com/shopspring/decimal"
)

// ComponentStatus is one line of the status report.
type ComponentStatus struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusReport summarises configuration and readiness of every component.
type StatusReport struct {
	CheckedAt        time.Time         `json:"checked_at"`
	DataSource       string            `json:"data_source"`
	Components       []ComponentStatus `json:"components"`
	Settings         map[string]string `json:"settings"`
	ArtifactAt       *time.Time        `json:"artifact_generated_at,omitempty"`
	IntegrationScore float64           `json:"integration_score"`
}

// StatusService inspects configuration and probes the data source.
type StatusService struct {
	cfg    *config.Config
	opener repository.Opener
	sinks  []sink.Sink
	now    func() time.Time
}

func NewStatusService(cfg *config.Config, opener repository.Opener, sinks []sink.Sink) *StatusService {
	return &StatusService{cfg: cfg, opener: opener, sinks: sinks, now: time.Now}
}

// Check builds the status report. It never fails: problems show up as
// components that are not ready.
func (s *StatusService) Check(ctx context.Context) StatusReport {
	rep := StatusReport{
		CheckedAt:  s.now().UTC(),
		DataSource: s.opener.Name(),
		Settings:   s.cfg.Redacted(),
	}

	rep.Components = append(rep.Components, s.checkSource(ctx))

	artifact := ComponentStatus{Name: "artifact"}
	if r, err := report.Read(s.cfg.App.ArtifactPath); err == nil {
		artifact.Ready = true
		artifact.Detail = s.cfg.App.ArtifactPath + " (" + r.Period.Today + ")"
		at := r.GeneratedAt
		rep.ArtifactAt = &at
	} else if errors.Is(err, report.ErrNotFound) {
		artifact.Detail = "not generated yet"
	} else {
		artifact.Detail = err.Error()
	}
	rep.Components = append(rep.Components, artifact)

	for _, sk := range s.sinks {
		c := ComponentStatus{Name: "sink:" + sk.Name(), Ready: sk.Configured()}
		if !c.Ready {
			c.Detail = "missing_config"
		}
		rep.Components = append(rep.Components, c)
	}

	rep.Components = append(rep.Components,
		configured("amazon", s.cfg.Market.AmazonClientID != ""),
		configured("rakuten", s.cfg.Market.RakutenServiceSecret != ""),
		configured("ai", s.cfg.AI.Configured()),
	)

	rep.IntegrationScore = Score(rep.Components)
	return rep
}

func (s *StatusService) checkSource(ctx context.Context) ComponentStatus {
	c := ComponentStatus{Name: "data source"}
	p, err := s.opener.Open(ctx)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer p.Close()

	c.Ready = true
	c.Detail = s.opener.Name()
	return c
}

func configured(name string, ok bool) ComponentStatus {
	c := ComponentStatus{Name: name, Ready: ok}
	if !ok {
		c.Detail = "missing_config"
	}
	return c
}

// Score is the percentage of ready components, to one decimal.
func Score(components []ComponentStatus) float64 {
	if len(components) == 0 {
		return 0
	}
	ready := 0
	for _, c := range components {
		if c.Ready {
			ready++
		}
	}
	score, _ := decimal.NewFromInt(int64(ready)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(len(components)))).
		Round(1).
		Float64()
	return score
}
