// Package cli provides command-line interface setup and configuration
// for the linguist reader. It handles flag parsing, command creation,
// configuration loading and validation using cobra, viper and validator,
// and builds the application logger.
package cli
