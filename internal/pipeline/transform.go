package pipeline

import (
	"context"
	"log/slog"

	"github.com/pmatran/vulnerapp/internal/domain"
)

// MeasurementTransformer implements Transformer by decoding station payloads.
type MeasurementTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a MeasurementTransformer.
func NewTransformer(logger *slog.Logger) *MeasurementTransformer {
	return &MeasurementTransformer{logger: logger}
}

func (t *MeasurementTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.Measurement, error) {
	m, err := domain.ParseMeasurement(raw)
	if err != nil {
		return domain.Measurement{}, err
	}
	t.logger.Debug("measurement parsed",
		"time", m.Time,
		"has_level", m.HasLevel(),
		"has_flow", m.HasFlow(),
		"offset", raw.Offset,
	)
	return m, nil
}
