// Package preflight provides readiness checks for the filesystem locations
// and settings files buildhooks depends on.
//
// These checks run in two contexts:
//   - "buildhooks serve" runs RunAll at startup and logs every failed check
//     as a warning; the server still starts so builds keep being announced.
//   - "buildhooks config validate" prints the results as a table.
package preflight
