// Package cli provides the interactive IoT admin console.
//
// It wires configuration, the local SQLite cache, the REST client, the
// session and the firmware components behind a line-oriented REPL. The
// console has three screens: the login entry screen, the users overview and
// the firmware registry with its upload form. Protected screens render only
// through the session guard; a logout or an expired token sends the operator
// back to the entry screen with the history replaced.
//
// Uploads and downloads run in the background. The prompt shows the
// operator, the current screen, the selected file and upload progress, and
// notices (success or error) are printed as they are raised.
//
// The console is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and router for details.
package cli
