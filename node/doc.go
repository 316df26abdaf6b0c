// Package node implements a single participant in a flooding gossip network.
//
// A node tracks the peers it has recently heard from, probes them
// periodically, and floods the biggest value it knows of (the largest
// Mersenne prime) to its peers with a bounded hop count. Messages are
// identified by the pair (message ID, originator) so a message re-received via
// another path is processed at most once.
//
// All mutable node state is owned by Node and guarded by a single mutex. The
// network is reached through the Transport interface, and periodic work is
// driven by Scheduler.
package node
