// Package oschub is the UDP/OSC boundary of the engine. The hub ingests the
// analyzer's /audio feature stream into a latest-value map with a liveness
// window, routes /song identity fragments to the song assembler, and queues
// /vj control operations for the frame loop. The publisher forwards bound
// parameter values, scene changes and visibility toggles to the renderer
// targets. The receive loop owns the socket directly so the sender address
// stays available for diagnostics.
package oschub
