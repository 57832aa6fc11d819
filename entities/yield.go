package entities

type PredictionInput struct {
	Area       string  `json:"area" valid:"required"`
	Item       string  `json:"item" valid:"required"`
	Rainfall   float64 `json:"rainfall"`
	Pesticides float64 `json:"pesticides"`
	Temp       float64 `json:"temp"`
	Year       int     `json:"year"`
}

type TrainingInput struct {
	PredictionInput
	YieldValue float64 `json:"yield_value"`
}

// Record builds an untrained row from the input.
func (t TrainingInput) Record() Record {
	return Record{
		Area:       t.Area,
		Item:       t.Item,
		Rainfall:   t.Rainfall,
		Pesticides: t.Pesticides,
		Temp:       t.Temp,
		Year:       t.Year,
		YieldValue: t.YieldValue,
	}
}
