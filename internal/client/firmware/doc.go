// Package firmware implements the operator's firmware workflow as a set of
// small, mutex-guarded state holders:
//
//   - Intake validates a candidate file and holds the single selected Artifact,
//     whether it came from the picker or the drop zone.
//   - Uploader checks preconditions, streams the artifact with live progress,
//     and resets the form on success.
//   - Registry holds the last-known-good firmware list and persists it.
//   - Controller activates, deletes (behind a confirmation step) and
//     downloads individual records.
//   - Board carries the one user-visible notice.
//
// After every successful mutation the list is re-fetched from the server;
// no component patches it locally.
package firmware
