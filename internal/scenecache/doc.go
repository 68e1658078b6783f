// Package scenecache persists curated scene selections, one JSON file per
// song id. A cached record is trusted unconditionally when present so repeat
// plays never touch the inference endpoint.
package scenecache
