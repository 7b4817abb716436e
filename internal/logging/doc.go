// Package logging configures structured logging for ctxindex.
//
// Commands log to stderr at the configured level. With --debug, and always
// while serving MCP over stdio, JSON logs also go to a rotating file under
// ~/.ctxindex/logs/ so stdout stays reserved for the protocol.
package logging
