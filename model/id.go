package model

import (
	"github.com/oklog/ulid/v2"
)

type ID ulid.ULID

func NewID() ID {
	return ID(ulid.Make())
}

func ParseID(s string) (ID, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return ID{}, ErrInvalidArgument
	}

	return ID(id), nil
}

func (id ID) Bytes() []byte {
	return id[:]
}

func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	if id.IsZero() {
		return ""
	}

	return ulid.ULID(id).String()
}

func (id ID) Time() uint64 {
	return ulid.ULID(id).Time()
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ID{}
		return nil
	}

	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

func (id ID) Compare(other ID) int {
	return ulid.ULID(id).Compare(ulid.ULID(other))
}
