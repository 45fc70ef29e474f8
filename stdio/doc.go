// Package stdio implements the reference ACP transport: newline-delimited
// JSON-RPC over a reader/writer pair. Clients normally launch the agent as a
// subprocess and talk to it over its stdin/stdout; the agent does the same
// from its side with os.Stdin and os.Stdout.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 peer
//	Framing          : one JSON value per line, UTF-8, '\n' terminated
//	Logging          : never on stdout; use stderr (see WithLogger)
//
// Frames that arrive pretty-printed on the write side are compacted before
// they hit the wire, since an embedded newline would split the frame.
//
// Agent side:
//
//	stream := stdio.NewStream()
//	conn := acpconn.NewAgentSideConnection(myAgent, stream)
//	<-conn.Done()
//
// Client side:
//
//	proc, err := stdio.Spawn(ctx, exec.Command("my-agent"))
//	if err != nil { ... }
//	conn := acpconn.NewClientSideConnection(myClient, proc)
package stdio
