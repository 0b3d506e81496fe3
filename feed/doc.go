/*
Package feed turns raw vehicle-telemetry text into canonical position
records.

Two feed shapes exist and both are described by an externally supplied
Descriptor, never by per-operator code:

  - full format: a comma-delimited header row names the columns
    (DecodeHeaderFeed)
  - lite format: headerless lines with fixed column offsets
    (DecodeOffsetFeed)

The package also owns the normalization primitives shared by both decoders:
fixed-point coordinate scaling, bearing/speed clamping, service-day time
math and mojibake repair for the Windows-1257 feeds.

Rows that fail coercion are skipped; a missing mandatory header column is a
ConfigurationError and aborts the parse before any row.
*/
package feed
