/*
Package hservehttp implements the hserve server: a wire-level HTTP/1.x
server with its own accept loop, handler contract, and response model.

The central types are Handler, which receives a parsed request together with
the buffered reader holding any body bytes, and Body, the strategy a handler
returns for producing the response payload.  Servers are normally built from
a ServerConfig unmarshaled out of external configuration, and bound to an
fx.App lifecycle via the fluent builder started by NewServerBuilder().

Two concurrency modes are supported: one goroutine per accepted connection,
or a fixed worker pool fed by a bounded queue (see hservepool).
*/
package hservehttp
