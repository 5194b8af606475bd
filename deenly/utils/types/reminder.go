package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ReminderRequest struct {
	Title    string    `json:"title"`
	Note     string    `json:"note"`
	RemindAt time.Time `json:"remind_at"`
}

func (r ReminderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Note, validation.Length(0, 2000)),
		validation.Field(&r.RemindAt, validation.Required),
	)
}

type DoneRequest struct {
	Done *bool `json:"done"`
}
