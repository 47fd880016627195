// Package tools contains the built-in ClickHouse maintenance tools and the
// registry the CLI runs them through.
//
// Each tool is a tool.Handler over *clickhouse.Table targets with its own
// settings type. The registry wraps every handler in an engine and exposes
// it behind the type-erased Runner interface, so the CLI never deals with
// the engine's type parameters.
//
// Built-in tools:
//
//   - optimize: OPTIMIZE TABLE with optional PARTITION/FINAL/DEDUPLICATE;
//     statistics-capable (active part rollup from system.parts)
//   - check: CHECK TABLE; no optional capabilities
//   - truncate: TRUNCATE TABLE; requires confirmation
package tools
