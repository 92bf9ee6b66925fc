package model

import (
	"encoding/json"
	"errors"
	"time"
)

type ResultStatus string

const (
	SUCCESS ResultStatus = "success"
	FAILURE ResultStatus = "failure"
)

// Result is the envelope every HTTP response is wrapped in.
type Result struct {
	Status ResultStatus
	Msg    string
	Data   any
	Raw    json.RawMessage
	Time   time.Time
}

func SuccessResult(msg string, data any) *Result {
	return &Result{
		Status: SUCCESS,
		Msg:    msg,
		Data:   data,
		Time:   time.Now(),
	}
}

func FailureResult(err error) *Result {
	return &Result{
		Status: FAILURE,
		Msg:    err.Error(),
		Time:   time.Now(),
	}
}

func (r *Result) Error() error {
	if r.Status == SUCCESS {
		return nil
	}

	return errors.New(r.Msg)
}

// Decode unmarshals the payload of a received result into v.
func (r *Result) Decode(v any) error {
	if len(r.Raw) == 0 {
		return ErrNotFound
	}

	return json.Unmarshal(r.Raw, v)
}

type resultJSON struct {
	Status ResultStatus    `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data,omitempty"`
	Time   time.Time       `json:"time"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	output := resultJSON{
		Status: r.Status,
		Msg:    r.Msg,
		Time:   r.Time,
	}

	switch {
	case r.Data != nil:
		bs, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}

		output.Data = bs

	case len(r.Raw) > 0:
		output.Data = r.Raw
	}

	return json.Marshal(&output)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var input resultJSON
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	r.Status = input.Status
	r.Msg = input.Msg
	r.Raw = input.Data
	r.Time = input.Time

	return nil
}
