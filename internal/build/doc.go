// Package build describes a finished build as seen by the notification
// pipeline.
//
// Facts carries everything the pipeline needs from the build server, and the
// Host interface is the narrow collaborator surface for the two lookups that
// may fail (source-control pointer, local artifact listing). The URL helpers
// reproduce the build server's link layout so archive downloads, log views,
// and the artifacts tab can be addressed without a live server object.
package build
