package domain

import (
	"github.com/google/uuid"

	dErrors "bgv/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so a CheckID can never be passed where a
// CaseID is expected.
type (
	CheckID  uuid.UUID
	CaseID   uuid.UUID
	ClientID uuid.UUID
)

func (id CheckID) String() string  { return uuid.UUID(id).String() }
func (id CaseID) String() string   { return uuid.UUID(id).String() }
func (id ClientID) String() string { return uuid.UUID(id).String() }

func (id CheckID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CheckID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id CaseID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ClientID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CheckID) UnmarshalText(b []byte) error {
	parsed, err := ParseCheckID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CaseID) UnmarshalText(b []byte) error {
	parsed, err := ParseCaseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ClientID) UnmarshalText(b []byte) error {
	parsed, err := ParseClientID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewCheckID, NewCaseID and NewClientID mint random identifiers.
func NewCheckID() CheckID   { return CheckID(uuid.New()) }
func NewCaseID() CaseID     { return CaseID(uuid.New()) }
func NewClientID() ClientID { return ClientID(uuid.New()) }

// ParseCheckID parses a check identifier at a trust boundary.
func ParseCheckID(s string) (CheckID, error) {
	u, err := parseUUID(s, "check_id")
	return CheckID(u), err
}

// ParseCaseID parses a case identifier at a trust boundary.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case_id")
	return CaseID(u), err
}

// ParseClientID parses a client identifier at a trust boundary.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s, "client_id")
	return ClientID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}
