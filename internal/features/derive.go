package features

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Required lists the clinical fields every prediction input must carry,
// in the order they are reported when missing.
var Required = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

// Engineered lists the ratio and interaction features added by Derive.
var Engineered = []string{"chol_ratio", "hr_ratio", "oldpeak_ratio", "cp_hr", "sex_age"}

// AgeBinColumn is the name of the categorical age feature.
const AgeBinColumn = "age_bin"

// AgeBin is the categorical age bucket fed to the model.
type AgeBin string

const (
	AgeBinNone   AgeBin = ""
	AgeBinYoung  AgeBin = "young"
	AgeBinMiddle AgeBin = "middle"
	AgeBinSenior AgeBin = "senior"
	AgeBinOld    AgeBin = "old"
)

var (
	ageBinEdges  = []float64{0, 40, 55, 70, 100}
	ageBinLabels = []AgeBin{AgeBinYoung, AgeBinMiddle, AgeBinSenior, AgeBinOld}
)

// BinAge buckets age into right-closed intervals (0,40], (40,55], (55,70], (70,100].
// Ages outside (0,100] have no bin.
func BinAge(age float64) AgeBin {
	for i := 1; i < len(ageBinEdges); i++ {
		if age > ageBinEdges[i-1] && age <= ageBinEdges[i] {
			return ageBinLabels[i-1]
		}
	}
	return AgeBinNone
}

// Derived is the model-ready feature set: the raw numeric fields, the
// engineered ratios/interactions and the age bin.
type Derived struct {
	Numeric map[string]float64
	AgeBin  AgeBin
}

// Value returns a numeric feature by column name.
func (d Derived) Value(column string) (float64, bool) {
	v, ok := d.Numeric[column]
	return v, ok
}

// NonFinite lists, in column order, the numeric features that overflowed
// to an infinity or NaN.
func (d Derived) NonFinite() []string {
	var bad []string
	for _, cols := range [][]string{Required, Engineered} {
		for _, name := range cols {
			if v, ok := d.Numeric[name]; ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
				bad = append(bad, name)
			}
		}
	}
	return bad
}

// Category returns a categorical feature by column name.
func (d Derived) Category(column string) (string, bool) {
	if column == AgeBinColumn {
		return string(d.AgeBin), true
	}
	return "", false
}

// Derive computes the engineered features. The ratio features divide by age,
// so callers must reject non-positive ages before calling.
func Derive(raw map[string]float64) (Derived, error) {
	var missing []string
	for _, name := range Required {
		if _, ok := raw[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Derived{}, eris.Errorf("features: missing %s", strings.Join(missing, ", "))
	}

	n := make(map[string]float64, len(Required)+len(Engineered))
	for _, name := range Required {
		n[name] = raw[name]
	}

	age := n["age"]
	n["chol_ratio"] = n["chol"] / age
	n["hr_ratio"] = n["thalach"] / age
	n["oldpeak_ratio"] = n["oldpeak"] / age
	n["cp_hr"] = n["cp"] * n["thalach"]
	n["sex_age"] = n["sex"] * age

	return Derived{Numeric: n, AgeBin: BinAge(age)}, nil
}
