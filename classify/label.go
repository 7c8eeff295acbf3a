package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"

	"github.com/poiesic/grievance/core"
)

var errNoPredictions = errors.New("label data has no predictions object")

// prediction is one entry of predictions.predictions. Pointers distinguish
// absent fields from zero values.
type prediction struct {
	Class      *string  `json:"class"`
	Confidence *float64 `json:"confidence"`
}

type labelResponse struct {
	Predictions *struct {
		Predictions []prediction `json:"predictions"`
	} `json:"predictions"`
}

// parsePredictions decodes an inference response. The response is either an
// object or a sequence whose first element is the object.
func parsePredictions(raw []byte) ([]prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var wrapped []json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		if len(wrapped) == 0 {
			return nil, errNoPredictions
		}
		raw = wrapped[0]
	}

	var resp labelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if resp.Predictions == nil {
		return nil, errNoPredictions
	}
	return resp.Predictions.Predictions, nil
}

// ExtractLabelPrediction returns the highest-confidence prediction of an
// inference response. Ties keep input order. An empty prediction list yields
// "No prediction"; anything that fails to parse yields "Error". It never fails.
func ExtractLabelPrediction(raw []byte) core.LabelPrediction {
	preds, err := parsePredictions(raw)
	if err != nil {
		return core.LabelPrediction{Class: core.LabelError}
	}
	if len(preds) == 0 {
		return core.LabelPrediction{Class: core.LabelNoPrediction}
	}

	ranked := slices.Clone(preds)
	slices.SortStableFunc(ranked, func(a, b prediction) int {
		ca, cb := confidence(a), confidence(b)
		switch {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		}
		return 0
	})

	top := ranked[0]
	class := core.LabelUnknown
	if top.Class != nil {
		class = *top.Class
	}
	return core.LabelPrediction{Class: class, Confidence: confidence(top)}
}

// ImageDetections returns every prediction carrying both a class and a
// confidence, in input order. Unparseable responses yield no detections.
func ImageDetections(raw []byte) []core.Detection {
	detections := []core.Detection{}
	if len(raw) == 0 {
		return detections
	}

	preds, err := parsePredictions(raw)
	if err != nil {
		return detections
	}

	for _, p := range preds {
		if p.Class == nil || p.Confidence == nil {
			continue
		}
		detections = append(detections, core.Detection{Class: *p.Class, Confidence: *p.Confidence})
	}
	return detections
}

func confidence(p prediction) float64 {
	if p.Confidence == nil {
		return 0
	}
	return *p.Confidence
}
