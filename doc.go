// Package instancechart discovers other instances of a process on the local
// network through IPv4 multicast and keeps a live map from instance id to
// the address and payload each one last announced.
//
// An instance opens a chart with a Builder, gets back a handle typed by its
// payload kind (a single service port, a list of service ports, or a custom
// binary payload), and runs Maintain to exchange announcements with its
// peers in the background. The chart never expires an entry on its own —
// callers that need liveness detection build it on top.
package instancechart
