// Package processor contains the application logic behind the command
// line. It opens the configured state store, wires the parser, translator,
// cache and history into a reading session and runs the selected mode:
// interactive reading, history listing and deletion, batch translation or
// page snapshot export.
package processor
