// Package replset implements laura-db's replica-set membership and
// primary-election controller: the subsystem that keeps a group of nodes in
// agreement about which member is currently serving as the writable primary,
// tracks peer liveness through heartbeats, and reconfigures the member table
// when an administrator (or a peer with a newer configuration) asks it to.
//
// It does not implement the oplog store, the write path, or the wire
// transport for heartbeat/election RPCs — those are external collaborators
// whose contracts are expressed here as the HeartbeatTransport and
// ElectionTransport interfaces.
package replset
