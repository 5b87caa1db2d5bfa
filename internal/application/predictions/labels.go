package predictions

// featureLabels maps transformed feature names to what a clinician reads.
var featureLabels = map[string]string{
	"num__age":            "Age",
	"num__sex":            "Sex (Male/Female)",
	"num__cp":             "Chest Pain Type",
	"num__trestbps":       "Resting Blood Pressure",
	"num__chol":           "Cholesterol Level",
	"num__fbs":            "Fasting Blood Sugar > 120 mg/dl",
	"num__restecg":        "Resting ECG Results",
	"num__thalach":        "Maximum Heart Rate",
	"num__exang":          "Exercise Induced Angina",
	"num__oldpeak":        "ST Depression from Exercise",
	"num__slope":          "Exercise ST Segment Slope",
	"num__ca":             "Number of Major Blood Vessels",
	"num__thal":           "Thalassemia Blood Test",
	"num__chol_ratio":     "Cholesterol-to-Age Ratio",
	"num__hr_ratio":       "Heart Rate-to-Age Ratio",
	"num__oldpeak_ratio":  "ST Depression-to-Age Ratio",
	"num__cp_hr":          "Chest Pain and Heart Rate Interaction",
	"num__sex_age":        "Sex and Age Interaction",
	"cat__age_bin_middle": "Age Group: Middle-aged (40-55)",
	"cat__age_bin_senior": "Age Group: Senior (55-70)",
	"cat__age_bin_old":    "Age Group: Elderly (70+)",
	"cat__age_bin_young":  "Age Group: Young (under 40)",
}

// HumanReadable returns the display label of a transformed feature name,
// or the name itself when it has none.
func HumanReadable(name string) string {
	if label, ok := featureLabels[name]; ok {
		return label
	}
	return name
}
