// Package artifacts resolves where a finished build's artifacts can be
// downloaded from.
//
// Two independent sources feed one Locations map: the build server's own
// archive (synthesized download URLs for every entry of the local artifacts
// directory) and an optional object-storage bucket the build uploaded to.
// The remote pass is best-effort; any failure there is logged and the local
// result is still returned.
package artifacts
