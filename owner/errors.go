package owner

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction is the class of every registry construction failure.
	ErrConstruction = errors.New("owner: invalid registry")

	// ErrInvalidOwnerSet indicates the owner list is empty.
	ErrInvalidOwnerSet = fmt.Errorf("%w: owner set is empty", ErrConstruction)

	// ErrInvalidThreshold indicates the threshold is below 1 or above the owner count.
	ErrInvalidThreshold = fmt.Errorf("%w: threshold out of range", ErrConstruction)

	// ErrDuplicateOwner indicates a repeated or zero owner address.
	ErrDuplicateOwner = fmt.Errorf("%w: duplicate or zero owner", ErrConstruction)

	// ErrInvalidAddress indicates an address string or hash cannot be decoded.
	ErrInvalidAddress = errors.New("owner: invalid address")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("owner: required parameter is nil")
)
