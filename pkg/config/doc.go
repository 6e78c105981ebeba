// Package config loads env-tagged configuration structs from the
// process environment, with optional .env file support for local
// development. Configuration is loaded once at wiring time and passed
// into constructors explicitly; there is no global registry.
package config
