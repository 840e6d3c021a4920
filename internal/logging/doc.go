// Package logging builds the slog loggers buildhooks components share.
//
// Console output is a single key=value line per record, coloured only on a
// terminal, with the component and the short delivery id up front. The log
// file always receives JSON. WithCorrelationID and WithContext carry a
// notification's delivery id onto every record it produces.
package logging
