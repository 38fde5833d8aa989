package client

import (
	"fmt"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// replyError converts an ERR reply into a store error. The wire error codes
// are the store return codes 1 to 4, so they are forwarded unchanged.
func replyError(v common.Value) error {
	if v.Tag != common.TagErr || v.Err == nil {
		return nil
	}
	return store.NewError(store.RetCode(v.Err.Code), v.Err.Msg)
}

// transportError wraps a failed round trip. The result matches both an
// internal store error and the transport cause with errors.Is.
func transportError(cmd string, err error) error {
	return fmt.Errorf("%w: %w", store.NewError(store.RetCInternalError, cmd+" failed"), err)
}

// unexpected reports a reply whose type does not fit the command
func unexpected(cmd string, v common.Value) error {
	return store.NewError(store.RetCInternalError, fmt.Sprintf("%s: unexpected %s reply", cmd, v.Tag))
}

// expect checks a reply for errors and the expected tags
func expect(cmd string, v common.Value, tags ...common.Tag) error {
	if err := replyError(v); err != nil {
		return err
	}
	for _, tag := range tags {
		if v.Tag == tag {
			return nil
		}
	}
	return unexpected(cmd, v)
}
