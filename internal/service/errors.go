// Package service implements the interactive operations of chorebank:
// group membership, task management with peer confirmation, and balance
// transfers. The chat front-end drives these; the settlement engine runs
// beside them against the same store.
package service

import "errors"

var (
	ErrNotInGroup     = errors.New("user is not in a group")
	ErrAlreadyInGroup = errors.New("user already belongs to a group")
	ErrNotOwner       = errors.New("only the group owner may do this")
	ErrNameTaken      = errors.New("group name already taken")
	ErrBadStartDay    = errors.New("start day must be one of the seven weekday names")
	ErrBadDuration    = errors.New("sprint duration must be a positive multiple of 7 days")
	ErrBadCode        = errors.New("wrong or expired confirmation code")
	ErrOwnConfirm     = errors.New("a completion must be confirmed by another member")
	ErrNotMember      = errors.New("user is not a member of this group")
	ErrBadAmount      = errors.New("amount must be positive")
	ErrBadTask        = errors.New("task does not belong to the user's group")
)
