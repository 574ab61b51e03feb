/*
Package hserve provides the configuration glue shared by the hserve server
packages.  It defines the Unmarshaler strategy used to read external
configuration into prototype structs, a viper-backed implementation of that
strategy, and a handful of mapstructure decode options that make unmarshaling
friendlier.

Subpackages implement the actual server:

  - hservewire parses and serializes the HTTP/1.x wire format
  - hservehttp implements the accept loop, handlers, and fx integration
  - hservepool provides the bounded worker pool used by the pooled
    concurrency mode
  - hservetls holds unmarshalable TLS configuration
  - hservebridge mounts net/http handlers on an hserve server
  - hservetest contains raw round-trip helpers for tests
*/
package hserve
