package domain

// Prediction is one simulated gallery state for an indicator under a
// hydraulic condition.
type Prediction struct {
	Indicator    string
	Condition    string
	GalleryLevel float64 // n_gal, mNGF
	RiverLevel   float64 // h_riv, mNGF
	FlowRate     float64 // q_pred, m3/h
	Value        float64 // median prediction, %
	Value90      float64 // 84% confidence prediction, %
}

// HeadDifference is the river level minus the gallery level in metres.
func (p Prediction) HeadDifference() float64 {
	return p.RiverLevel - p.GalleryLevel
}

// FilterPredictions returns the rows matching both indicator and condition,
// preserving input order.
func FilterPredictions(rows []Prediction, indicator, condition string) []Prediction {
	var out []Prediction
	for _, r := range rows {
		if r.Indicator == indicator && r.Condition == condition {
			out = append(out, r)
		}
	}
	return out
}

// Conditions lists the distinct condition codes in first-seen order.
func Conditions(rows []Prediction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Condition]; ok {
			continue
		}
		seen[r.Condition] = struct{}{}
		out = append(out, r.Condition)
	}
	return out
}

// Indicators lists the distinct indicator codes in first-seen order.
func Indicators(rows []Prediction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Indicator]; ok {
			continue
		}
		seen[r.Indicator] = struct{}{}
		out = append(out, r.Indicator)
	}
	return out
}
