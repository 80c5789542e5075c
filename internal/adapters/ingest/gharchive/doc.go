// Package gharchive handles the GH Archive side of ingestion: hour bucket naming,
// download and decompression of hourly files, reverse line iteration and the
// event wire model.
//
// Design choices:
//   - Artifacts are addressed only by their bucket name, so every stage can find them on disk.
//   - Downloads and decompression write to a .part file and rename, so a crash never
//     leaves a truncated artifact under its final name.
//   - Payloads stay raw until the event type is known; DecodePayload maps a type tag onto
//     one concrete payload struct.
//   - Timestamps are kept as the strings GitHub sent; historical files carry several formats.
package gharchive
