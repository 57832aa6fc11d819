package entities

import "time"

// Record is one observed season for an (area, item) pair. IsTrained only ever
// moves from false to true, once the row has been part of a successful fit.
type Record struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Area       string  `json:"area"`
	Item       string  `json:"item"`
	Rainfall   float64 `json:"rainfall"`
	Pesticides float64 `json:"pesticides"`
	Temp       float64 `json:"temp"`
	Year       int     `json:"year"`
	YieldValue float64 `json:"yield_value"`
	IsTrained  bool    `gorm:"column:is_trained;default:false;index" json:"is_trained"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Record) TableName() string { return "info" }

// TrainingInput copies the row into the shape the trainer consumes.
func (r Record) TrainingInput() TrainingInput {
	return TrainingInput{
		PredictionInput: PredictionInput{
			Area:       r.Area,
			Item:       r.Item,
			Rainfall:   r.Rainfall,
			Pesticides: r.Pesticides,
			Temp:       r.Temp,
			Year:       r.Year,
		},
		YieldValue: r.YieldValue,
	}
}
