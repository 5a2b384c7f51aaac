// Package config loads the server configuration file and builds the handler
// registration it describes.
package config
