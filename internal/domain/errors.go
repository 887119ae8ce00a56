package domain

import "errors"

var (
	ErrRoomAlreadyExists   = errors.New("room already exists")
	ErrRoomNotFound        = errors.New("room does not exist")
	ErrRoomFull            = errors.New("room is full")
	ErrNotInRoom           = errors.New("not in room")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrMalformedEvent      = errors.New("malformed event")
	ErrAlreadyInRoom       = errors.New("already in a room")
	ErrAlreadyMember       = errors.New("already a member of this room")
	ErrRateLimited         = errors.New("too many requests")
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrRoomAlreadyExists, "room_already_exists"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrNotInRoom, "not_in_room"},
	{ErrUnknownConnection, "unknown_connection"},
	{ErrDuplicateConnection, "duplicate_connection"},
	{ErrMalformedEvent, "malformed_event"},
	{ErrAlreadyInRoom, "already_in_room"},
	{ErrAlreadyMember, "already_member"},
	{ErrRateLimited, "rate_limited"},
}

// Kind returns the wire code of the first known error kind in err's chain,
// or "internal" when err matches none of them.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}

// IsInternalFault reports errors that mean the transport broke its contract
// rather than the client sending something wrong.
func IsInternalFault(err error) bool {
	return errors.Is(err, ErrUnknownConnection) || errors.Is(err, ErrDuplicateConnection)
}
