package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/api"
)

// connectError maps a ledger error onto a Connect status and attaches the
// ledger code in the Ledger-Error-Code header.
func connectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := connect.CodeInternal
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		code = connect.CodeInvalidArgument
	case ledger.KindNotFound:
		code = connect.CodeNotFound
	case ledger.KindConflict:
		code = connect.CodeFailedPrecondition
		if errors.Is(err, ledger.ErrMemberExists) {
			code = connect.CodeAlreadyExists
		}
	case ledger.KindPersistence:
		code = connect.CodeUnavailable
	}

	ce := connect.NewError(code, err)
	if c := ledger.CodeOf(err); c != "" {
		ce.Meta().Set(api.ErrorCodeHeader, c)
	}
	return ce
}
