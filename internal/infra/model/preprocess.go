package model

import (
	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/heart-risk/internal/features"
)

// ColumnTransformer turns derived features into the estimator's input vector.
type ColumnTransformer struct {
	steps []TransformerSpec
	names []string
}

func newColumnTransformer(spec PrepSpec) (*ColumnTransformer, error) {
	if len(spec.Transformers) == 0 {
		return nil, eris.New("prep: no transformers")
	}
	ct := &ColumnTransformer{steps: spec.Transformers}
	for _, t := range spec.Transformers {
		if t.Name == "" {
			return nil, eris.New("prep: transformer without name")
		}
		if len(t.Columns) == 0 {
			return nil, eris.Errorf("prep: transformer %s has no columns", t.Name)
		}
		switch t.Kind {
		case KindStandardScaler:
			if len(t.Mean) > 0 && len(t.Mean) != len(t.Columns) {
				return nil, eris.Errorf("prep: %s has %d means for %d columns", t.Name, len(t.Mean), len(t.Columns))
			}
			if len(t.Scale) > 0 && len(t.Scale) != len(t.Columns) {
				return nil, eris.Errorf("prep: %s has %d scales for %d columns", t.Name, len(t.Scale), len(t.Columns))
			}
			fallthrough
		case KindPassthrough:
			for _, c := range t.Columns {
				ct.names = append(ct.names, t.Name+"__"+c)
			}
		case KindOneHot:
			if len(t.Categories) != len(t.Columns) {
				return nil, eris.Errorf("prep: %s has %d category lists for %d columns", t.Name, len(t.Categories), len(t.Columns))
			}
			for i, c := range t.Columns {
				for _, cat := range t.Categories[i] {
					ct.names = append(ct.names, t.Name+"__"+c+"_"+cat)
				}
			}
		default:
			return nil, eris.Errorf("prep: unknown transformer kind %q", t.Kind)
		}
	}
	return ct, nil
}

// FeatureNamesOut returns the transformed feature names in output order.
func (ct *ColumnTransformer) FeatureNamesOut() []string {
	out := make([]string, len(ct.names))
	copy(out, ct.names)
	return out
}

// Transform builds the input vector. Unknown categories encode as all zeros.
func (ct *ColumnTransformer) Transform(d features.Derived) ([]float64, error) {
	x := make([]float64, 0, len(ct.names))
	for _, t := range ct.steps {
		switch t.Kind {
		case KindStandardScaler, KindPassthrough:
			for i, c := range t.Columns {
				v, ok := d.Value(c)
				if !ok {
					return nil, eris.Errorf("prep: missing numeric column %s", c)
				}
				if t.Kind == KindStandardScaler {
					if len(t.Mean) > 0 {
						v -= t.Mean[i]
					}
					if len(t.Scale) > 0 && t.Scale[i] != 0 {
						v /= t.Scale[i]
					}
				}
				x = append(x, v)
			}
		case KindOneHot:
			for i, c := range t.Columns {
				v, ok := d.Category(c)
				if !ok {
					return nil, eris.Errorf("prep: missing categorical column %s", c)
				}
				for _, cat := range t.Categories[i] {
					if v == cat {
						x = append(x, 1)
					} else {
						x = append(x, 0)
					}
				}
			}
		}
	}
	return x, nil
}
