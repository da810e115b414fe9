// Package client contains the client-side building blocks of the iotadmin
// CLI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract for the admin REST API (see the Client
//     interface): Login, ListUsers, ListFirmware, UploadFirmware,
//     ActivateFirmware, DeleteFirmware and DownloadFirmware.
//  2. A net/http implementation (see HTTPClient) that injects the bearer token
//     through an oauth2.Transport, tags every request with an X-Request-ID and
//     maps HTTP status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations,
//     NewRepositories) wiring an SQLite database with embedded goose
//     migrations.
//
// # Error Handling
//
// Callers match errors with errors.Is against ErrUnauthorized, ErrUnavailable
// and ErrInvalidCredentials. Other non-2xx responses surface as *APIError;
// ServerMessage extracts the server-supplied text.
//
// List endpoints may answer either with a wrapped envelope such as
// {"firmwares": [...]} or with a bare array; both decode to the same slice.
package client
