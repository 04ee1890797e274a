// Package ids defines the opaque 128-bit identifiers shared across the
// load engine: organizations and users.
package ids

import "github.com/google/uuid"

// OrgID identifies a synthetic organization. Once published to workers an
// OrgID exists for the entire process lifetime — nothing ever deletes it.
type OrgID uuid.UUID

// UserID identifies a synthetic user bound to exactly one organization.
type UserID uuid.UUID

// NewOrgID generates a fresh random organization identifier.
func NewOrgID() OrgID { return OrgID(uuid.New()) }

// NewUserID generates a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

func (o OrgID) String() string  { return uuid.UUID(o).String() }
func (u UserID) String() string { return uuid.UUID(u).String() }

// MarshalText/UnmarshalText render both id kinds as canonical UUID strings
// in JSON payloads rather than raw byte arrays.

func (o OrgID) MarshalText() ([]byte, error) { return uuid.UUID(o).MarshalText() }

func (o *OrgID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*o = OrgID(parsed)
	return nil
}

func (u UserID) MarshalText() ([]byte, error) { return uuid.UUID(u).MarshalText() }

func (u *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*u = UserID(parsed)
	return nil
}
