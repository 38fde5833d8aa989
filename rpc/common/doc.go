// Package common provides the data structures shared by the rKV server, the
// transports and the client. It defines the protocol values, the error codes
// carried on the wire, the configuration structures and the logging backend.
//
// Key Components:
//
//   - Value: one response value of the binary protocol (NIL, ERR, STR, INT,
//     DBL or ARR). Factory functions (NewStrValue, NewArrValue, ...) build
//     values; String renders them for the command line tools.
//
//   - CommandError and ErrorCode: command level failures. They travel to the
//     client as ERR values and never close the connection. The predefined
//     errors (ErrUnknownCommand, ErrExpectZSet, ...) carry the reply texts.
//
//   - ServerConfig and ClientConfig: configuration of both sides, including
//     event loop limits and socket options. Both have a String method for
//     startup output and yaml tags for `rkv config`.
//
//   - Logger: a zap backed implementation of dragonboat's logger.ILogger.
//     Packages keep using `logger.GetLogger(name)`; InitLoggers decides level
//     and output (stdout, optionally a rotated file through lumberjack).
package common
