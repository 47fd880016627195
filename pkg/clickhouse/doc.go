// Package clickhouse binds the generic maintenance engine to ClickHouse: a
// pooled client for system-table queries and run-history storage, a
// per-object session provider with dedicated connections, and the Table
// target object including wildcard resolution from system.tables.
package clickhouse
