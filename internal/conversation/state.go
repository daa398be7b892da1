package conversation

import (
	"database/sql"
	"encoding/json"
)

// Step — поле жалобы, которое собирается сейчас.
type Step int

const (
	StepScammer Step = iota + 1
	StepAmount
	StepDescription
	StepProof
)

func (s Step) IsValid() bool {
	return s >= StepScammer && s <= StepProof
}

func (s Step) String() string {
	switch s {
	case StepScammer:
		return "scammer"
	case StepAmount:
		return "amount"
	case StepDescription:
		return "description"
	case StepProof:
		return "proof"
	}
	return "unknown"
}

// Draft — накопленные значения полей.
type Draft struct {
	Scammer     string        `json:"scammer,omitempty"`
	ScammerID   sql.NullInt64 `json:"-"`
	Amount      string        `json:"amount,omitempty"`
	Description string        `json:"description,omitempty"`
	ProofLink   string        `json:"proof_link,omitempty"`
}

// State — прогресс пользователя по форме жалобы.
type State struct {
	UserID int64 `json:"user_id"`
	Step   Step  `json:"step"`
	Draft  Draft `json:"draft"`
}

// draftJSON хранит опциональный id явно: sql.NullInt64 не сериализуется в JSON сам.
type draftJSON struct {
	Scammer     string `json:"scammer,omitempty"`
	ScammerID   *int64 `json:"scammer_id,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Description string `json:"description,omitempty"`
	ProofLink   string `json:"proof_link,omitempty"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	out := draftJSON{
		Scammer:     d.Scammer,
		Amount:      d.Amount,
		Description: d.Description,
		ProofLink:   d.ProofLink,
	}
	if d.ScammerID.Valid {
		id := d.ScammerID.Int64
		out.ScammerID = &id
	}
	return json.Marshal(out)
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var in draftJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = Draft{
		Scammer:     in.Scammer,
		Amount:      in.Amount,
		Description: in.Description,
		ProofLink:   in.ProofLink,
	}
	if in.ScammerID != nil {
		d.ScammerID = sql.NullInt64{Int64: *in.ScammerID, Valid: true}
	}
	return nil
}
