package model

import "encoding/json"

// NumOptions es fijo: todas las preguntas tienen cuatro opciones.
const NumOptions = 4

// swagger:model Question
type Question struct {
	BaseModel
	Statement   string `gorm:"type:text;not null" json:"statement"`
	Options     string `gorm:"type:json;not null" json:"options"` // array JSON de 4 textos
	CorrectIdx  int    `gorm:"not null" json:"-"`                 // índice 0..3, nunca se expone
	Explanation string `gorm:"type:text" json:"explanation"`
	Active      bool   `gorm:"default:true" json:"active"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) OptionList() ([]string, error) {
	var opts []string
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func (q *Question) SetOptions(opts []string) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = string(raw)
	return nil
}
