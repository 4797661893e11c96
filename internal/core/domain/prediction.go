package domain

import "errors"

var (
	ErrModelNotLoaded = errors.New("prediction model not initialized")
	ErrModelNotFound  = errors.New("prediction model artifact not found")
	ErrInvalidModel   = errors.New("invalid prediction model artifact")
)

// StrokeInput is the fixed-shape feature record scored by the stroke model.
// Gender is categorical; every other field is numeric.
type StrokeInput struct {
	Age                float32 `json:"age" validate:"gte=0,lte=150"`
	Gender             string  `json:"gender" validate:"required"`
	ChestPain          float32 `json:"chest_pain" validate:"gte=0"`
	ShortnessOfBreath  float32 `json:"shortness_of_breath" validate:"gte=0"`
	IrregularHeartbeat float32 `json:"irregular_heartbeat" validate:"gte=0"`
	FatigueWeakness    float32 `json:"fatigue_weakness" validate:"gte=0"`
	Dizziness          float32 `json:"dizziness" validate:"gte=0"`
	SwellingEdema      float32 `json:"swelling_edema" validate:"gte=0"`
	NeckJawPain        float32 `json:"neck_jaw_pain" validate:"gte=0"`
	ExcessiveSweating  float32 `json:"excessive_sweating" validate:"gte=0"`
	PersistentCough    float32 `json:"persistent_cough" validate:"gte=0"`
	NauseaVomiting     float32 `json:"nausea_vomiting" validate:"gte=0"`
	HighBloodPressure  float32 `json:"high_blood_pressure" validate:"gte=0"`
	ChestDiscomfort    float32 `json:"chest_discomfort" validate:"gte=0"`
	ColdHandsFeet      float32 `json:"cold_hands_feet" validate:"gte=0"`
	SnoringSleepApnea  float32 `json:"snoring_sleep_apnea" validate:"gte=0"`
	AnxietyDoom        float32 `json:"anxiety_doom" validate:"gte=0"`
}

// Numeric returns the numeric features keyed by their wire names.
func (in StrokeInput) Numeric() map[string]float64 {
	return map[string]float64{
		"age":                 float64(in.Age),
		"chest_pain":          float64(in.ChestPain),
		"shortness_of_breath": float64(in.ShortnessOfBreath),
		"irregular_heartbeat": float64(in.IrregularHeartbeat),
		"fatigue_weakness":    float64(in.FatigueWeakness),
		"dizziness":           float64(in.Dizziness),
		"swelling_edema":      float64(in.SwellingEdema),
		"neck_jaw_pain":       float64(in.NeckJawPain),
		"excessive_sweating":  float64(in.ExcessiveSweating),
		"persistent_cough":    float64(in.PersistentCough),
		"nausea_vomiting":     float64(in.NauseaVomiting),
		"high_blood_pressure": float64(in.HighBloodPressure),
		"chest_discomfort":    float64(in.ChestDiscomfort),
		"cold_hands_feet":     float64(in.ColdHandsFeet),
		"snoring_sleep_apnea": float64(in.SnoringSleepApnea),
		"anxiety_doom":        float64(in.AnxietyDoom),
	}
}

// Categorical returns the categorical features keyed by their wire names.
func (in StrokeInput) Categorical() map[string]string {
	return map[string]string{"gender": in.Gender}
}

// Prediction is the scored output for a single StrokeInput.
type Prediction struct {
	RawScore       float64 `json:"rawScore"`
	IsAtRisk       bool    `json:"isAtRisk"`
	Probability    float64 `json:"probability"`
	RiskPercentage float64 `json:"riskPercentage"`
}

// StrokeFeatures lists the input feature names in canonical order.
var StrokeFeatures = []string{
	"age",
	"gender",
	"chest_pain",
	"shortness_of_breath",
	"irregular_heartbeat",
	"fatigue_weakness",
	"dizziness",
	"swelling_edema",
	"neck_jaw_pain",
	"excessive_sweating",
	"persistent_cough",
	"nausea_vomiting",
	"high_blood_pressure",
	"chest_discomfort",
	"cold_hands_feet",
	"snoring_sleep_apnea",
	"anxiety_doom",
}
