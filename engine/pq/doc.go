// Package pq adapts Apache Parquet files to the engine boundary using the
// arrow-go parquet implementation.
//
// Open parses the file footer once. Each row group is described by the byte
// range spanning all of its column chunks, so the reader can stage it with one
// ranged read. Decode serves the page reads of pqarrow from the staged bytes and
// never touches the source.
package pq
