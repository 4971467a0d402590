// Package cli provides the interactive diary command-line client.
//
// It is a thin layer over services.DiaryService: every command reads input,
// calls one or two service operations and prints the result. Passwords are
// read from the terminal without echo.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See runREPL for the command table.
package cli
